package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/alexanderramin/upf/internal/contract"
	"github.com/alexanderramin/upf/internal/domain"
)

type noteJSON struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type infoJSON struct {
	File       string                 `json:"file"`
	Name       string                 `json:"name"`
	Format     string                 `json:"format"`
	StartDate  *time.Time             `json:"start_date,omitempty"`
	FinishDate *time.Time             `json:"finish_date,omitempty"`
	Stats      contract.Stats         `json:"stats"`
	Notes      []noteJSON             `json:"notes"`
	Tasks      []contract.TaskSummary `json:"tasks"`
}

type recordJSON struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	Stage       string     `json:"stage,omitempty"`
	Kind        string     `json:"kind,omitempty"`
	Message     string     `json:"message,omitempty"`
	TaskCount   int        `json:"task_count"`
	NoteCount   int        `json:"note_count"`
	ElapsedMs   int64      `json:"elapsed_ms"`
	InputBytes  int64      `json:"input_bytes"`
	OutputBytes int64      `json:"output_bytes"`
	CreatedAt   time.Time  `json:"created_at"`
	Notes       []noteJSON `json:"notes,omitempty"`
}

func toNotesJSON(notes []domain.Note) []noteJSON {
	out := make([]noteJSON, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteJSON{Code: string(n.Code), Message: n.Message})
	}
	return out
}

func toInfoJSON(file string, info *contract.ProjectInfo) infoJSON {
	tasks := info.Tasks
	if tasks == nil {
		tasks = []contract.TaskSummary{}
	}
	return infoJSON{
		File:       file,
		Name:       info.Name,
		Format:     string(info.Format),
		StartDate:  info.StartDate,
		FinishDate: info.FinishDate,
		Stats:      info.Stats,
		Notes:      toNotesJSON(info.Notes),
		Tasks:      tasks,
	}
}

func toRecordJSON(r *domain.ConversionRecord) recordJSON {
	return recordJSON{
		ID:          r.ID,
		Filename:    r.Filename,
		Format:      r.Format,
		Status:      string(r.Status),
		Stage:       r.Stage,
		Kind:        r.Kind,
		Message:     r.Message,
		TaskCount:   r.TaskCount,
		NoteCount:   r.NoteCount,
		ElapsedMs:   r.ElapsedMs,
		InputBytes:  r.InputBytes,
		OutputBytes: r.OutputBytes,
		CreatedAt:   r.CreatedAt,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
