package importer

import (
	"io"
	"time"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/format"
)

// TemplateDecoder reads a structured container with file type template.
// Task dates are minute offsets from an anchor and progress is discarded.
type TemplateDecoder struct {
	// Start anchors task offsets when the template declares no start.
	Start *time.Time
}

func (TemplateDecoder) Format() format.Format { return format.TemplateVariant }

func (d TemplateDecoder) Decode(r io.Reader) (*Result, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	chunks, err := readContainer(data, format.FileTypeTemplate)
	if err != nil {
		return nil, err
	}
	b, err := newContainerBuilder(chunks)
	if err != nil {
		return nil, err
	}

	anchor := d.anchor(b.project.Properties.StartDate)
	b.project.Properties.StartDate = &anchor
	res, err := decodeContainer(b, chunks, offsetTaskDates(anchor))
	if err != nil {
		return nil, err
	}

	cleared := 0
	for _, t := range res.Project.Tasks {
		if t.PercentComplete != nil && *t.PercentComplete != 0 {
			cleared++
		}
		t.PercentComplete = nil
	}
	if cleared > 0 {
		res.Notes = append(res.Notes, domain.Notef(domain.NoteTemplateProgressCleared,
			"template carried progress on %d task(s); cleared", cleared))
	}
	return res, nil
}

func (d TemplateDecoder) anchor(declared *time.Time) time.Time {
	switch {
	case declared != nil:
		return *declared
	case d.Start != nil:
		return d.Start.UTC().Truncate(time.Minute)
	default:
		return DefaultTemplateStart
	}
}

// offsetTaskDates reads task dates as minute offsets from anchor;
// 0xFFFFFFFF marks an unset date.
func offsetTaskDates(anchor time.Time) taskDateFunc {
	return func(v uint32) *time.Time {
		if v == unsetU32 {
			return nil
		}
		t := anchor.Add(time.Duration(v) * time.Minute)
		return &t
	}
}
