package server

import (
	"time"

	"github.com/alexanderramin/upf/internal/contract"
	"github.com/alexanderramin/upf/internal/domain"
)

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type noteJSON struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func notesJSON(notes []domain.Note) []noteJSON {
	out := make([]noteJSON, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteJSON{Code: string(n.Code), Message: n.Message})
	}
	return out
}

type infoResponse struct {
	Name        string                 `json:"name"`
	Format      string                 `json:"format"`
	StartDate   *time.Time             `json:"start_date,omitempty"`
	FinishDate  *time.Time             `json:"finish_date,omitempty"`
	Stats       contract.Stats         `json:"stats"`
	Notes       []noteJSON             `json:"notes"`
	Tasks       []contract.TaskSummary `json:"tasks"`
	ContentType string                 `json:"content_type"`
	InputBytes  int64                  `json:"input_bytes"`
}

type conversionJSON struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	Format        string    `json:"format"`
	ContentType   string    `json:"content_type,omitempty"`
	Status        string    `json:"status"`
	Stage         string    `json:"stage,omitempty"`
	Kind          string    `json:"kind,omitempty"`
	Message       string    `json:"message,omitempty"`
	TaskCount     int       `json:"task_count"`
	ResourceCount int       `json:"resource_count"`
	CalendarCount int       `json:"calendar_count"`
	NoteCount     int       `json:"note_count"`
	ElapsedMs     int64     `json:"elapsed_ms"`
	InputBytes    int64     `json:"input_bytes"`
	OutputBytes   int64     `json:"output_bytes"`
	CreatedAt     time.Time `json:"created_at"`
}

func toConversionJSON(r *domain.ConversionRecord) conversionJSON {
	return conversionJSON{
		ID:            r.ID,
		Filename:      r.Filename,
		Format:        r.Format,
		ContentType:   r.ContentType,
		Status:        string(r.Status),
		Stage:         r.Stage,
		Kind:          r.Kind,
		Message:       r.Message,
		TaskCount:     r.TaskCount,
		ResourceCount: r.ResourceCount,
		CalendarCount: r.CalendarCount,
		NoteCount:     r.NoteCount,
		ElapsedMs:     r.ElapsedMs,
		InputBytes:    r.InputBytes,
		OutputBytes:   r.OutputBytes,
		CreatedAt:     r.CreatedAt,
	}
}

type conversionListResponse struct {
	Conversions []conversionJSON `json:"conversions"`
}

type conversionDetailResponse struct {
	Conversion conversionJSON `json:"conversion"`
	Notes      []noteJSON     `json:"notes"`
}
