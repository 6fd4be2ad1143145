package contract

import (
	"io"
	"time"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/format"
)

// ConvertRequest is one conversion call. FilenameHint is informational only;
// format detection never consults it.
type ConvertRequest struct {
	Input        io.Reader
	FilenameHint string
}

func NewConvertRequest(input io.Reader, filenameHint string) ConvertRequest {
	return ConvertRequest{Input: input, FilenameHint: filenameHint}
}

type Stats struct {
	TaskCount     int   `json:"task_count"`
	ResourceCount int   `json:"resource_count"`
	CalendarCount int   `json:"calendar_count"`
	ElapsedMillis int64 `json:"elapsed_ms"`
}

// StatsFor counts the entities of p.
func StatsFor(p *domain.Project, elapsed time.Duration) Stats {
	return Stats{
		TaskCount:     len(p.Tasks),
		ResourceCount: len(p.Resources),
		CalendarCount: len(p.Calendars),
		ElapsedMillis: elapsed.Milliseconds(),
	}
}

// ConvertResult is returned only on full success; XML is the complete
// encoded document.
type ConvertResult struct {
	XML    []byte
	Format format.Format
	Stats  Stats
	Notes  []domain.Note
}

// ProjectInfo summarises a decoded project without encoding it.
type ProjectInfo struct {
	Name       string
	Format     format.Format
	StartDate  *time.Time
	FinishDate *time.Time
	Stats      Stats
	Notes      []domain.Note
	Tasks      []TaskSummary
}

// TaskSummary is one row of the task outline, in model order.
type TaskSummary struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	OutlineLevel    int    `json:"outline_level"`
	DurationMin     *int   `json:"duration_min,omitempty"`
	PercentComplete *int   `json:"percent_complete,omitempty"`
	Milestone       bool   `json:"milestone"`
}

// OutlineOf lists the tasks of p in outline order (see Project.OutlineOrder).
func OutlineOf(p *domain.Project) []TaskSummary {
	out := make([]TaskSummary, 0, len(p.Tasks))
	for _, t := range p.OutlineOrder() {
		out = append(out, TaskSummary{
			ID:              t.ID,
			Name:            t.Name,
			OutlineLevel:    t.OutlineLevel,
			DurationMin:     t.DurationMin,
			PercentComplete: t.PercentComplete,
			Milestone:       t.Milestone,
		})
	}
	return out
}
