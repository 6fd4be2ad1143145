package domain

import "time"

// ConversionRecord is one persisted conversion outcome.
type ConversionRecord struct {
	ID       string
	Filename string
	Format   string
	Status   ConversionStatus

	// ContentType is the MIME type sniffed from the upload, when known.
	ContentType string

	// Failure details; empty on success.
	Stage   string
	Kind    string
	Message string

	TaskCount     int
	ResourceCount int
	CalendarCount int
	NoteCount     int

	ElapsedMs   int64
	InputBytes  int64
	OutputBytes int64
	CreatedAt   time.Time
}

func (r *ConversionRecord) Succeeded() bool {
	return r.Status == ConversionSucceeded
}

// DisplayID returns the first eight characters of the record ID.
func (r *ConversionRecord) DisplayID() string {
	if len(r.ID) >= 8 {
		return r.ID[:8]
	}
	return r.ID
}
