package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/upf/internal/contract"
	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/format"
)

type field struct {
	label string
	value string
}

// renderFields aligns label/value pairs under a two-space indent.
func renderFields(fields []field) string {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.label))
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "  %s  %s\n", Dim(f.label+strings.Repeat(" ", width-len(f.label))), f.value)
	}
	return b.String()
}

func sourceLabel(name string, f format.Format) string {
	if f == "" {
		return name
	}
	return fmt.Sprintf("%s %s", name, Dim("("+string(f)+")"))
}

// FormatConversion summarises a finished conversion written to dest.
func FormatConversion(res *contract.ConvertResult, source, dest string) string {
	var b strings.Builder
	b.WriteString(Header("Converted") + "\n")
	b.WriteString(renderFields([]field{
		{"Source", sourceLabel(source, res.Format)},
		{"Output", fmt.Sprintf("%s %s", dest, Dim("("+HumanBytes(int64(len(res.XML)))+")"))},
		{"Tasks", strconv.Itoa(res.Stats.TaskCount)},
		{"Resources", strconv.Itoa(res.Stats.ResourceCount)},
		{"Calendars", strconv.Itoa(res.Stats.CalendarCount)},
		{"Elapsed", fmt.Sprintf("%d ms", res.Stats.ElapsedMillis)},
	}))
	if len(res.Notes) > 0 {
		b.WriteString("\n" + FormatNotes(res.Notes))
	}
	return b.String()
}

// FormatNotes lists advisory notes in decode order.
func FormatNotes(notes []domain.Note) string {
	if len(notes) == 0 {
		return ""
	}
	width := 0
	for _, n := range notes {
		width = max(width, len(n.Code))
	}
	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("Notes (%d)", len(notes))) + "\n")
	for _, n := range notes {
		code := string(n.Code)
		fmt.Fprintf(&b, "  %s  %s\n", StyleYellow.Render(code+strings.Repeat(" ", width-len(code))), n.Message)
	}
	return b.String()
}

// FormatProjectInfo renders an inspected project. With outline set the
// task tree follows the summary.
func FormatProjectInfo(info *contract.ProjectInfo, source string, outline bool) string {
	var b strings.Builder
	name := info.Name
	if name == "" {
		name = Dim("(unnamed)")
	}
	fields := []field{
		{"Name", Bold(name)},
		{"Source", sourceLabel(source, info.Format)},
		{"Start", ShortDate(info.StartDate)},
		{"Finish", ShortDate(info.FinishDate)},
		{"Tasks", strconv.Itoa(info.Stats.TaskCount)},
		{"Resources", strconv.Itoa(info.Stats.ResourceCount)},
		{"Calendars", strconv.Itoa(info.Stats.CalendarCount)},
	}
	if pct, ok := OverallProgress(info.Tasks); ok {
		fields = append(fields, field{"Progress", RenderProgress(pct, 20)})
	}
	b.WriteString(Header("Project") + "\n")
	b.WriteString(renderFields(fields))
	if outline && len(info.Tasks) > 0 {
		b.WriteString("\n" + Header("Outline") + "\n")
		b.WriteString(RenderTree(OutlineItems(info.Tasks)))
	}
	if len(info.Notes) > 0 {
		b.WriteString("\n" + FormatNotes(info.Notes))
	}
	return b.String()
}

// OverallProgress is the duration-weighted completion of the leaf tasks.
// Leaves without a duration weigh one minute. ok is false when no leaf
// reports a percentage.
func OverallProgress(tasks []contract.TaskSummary) (pct int, ok bool) {
	var done, total float64
	for i, t := range tasks {
		if i+1 < len(tasks) && tasks[i+1].OutlineLevel > t.OutlineLevel {
			continue
		}
		weight := 1.0
		if t.DurationMin != nil && *t.DurationMin > 0 {
			weight = float64(*t.DurationMin)
		}
		total += weight
		if t.PercentComplete != nil {
			ok = true
			done += weight * float64(*t.PercentComplete) / 100
		}
	}
	if !ok || total == 0 {
		return 0, false
	}
	return int(done/total*100 + 0.5), true
}

// OutlineItems turns a task outline into tree rows. Levels are shifted so
// the shallowest task sits at level 1.
func OutlineItems(tasks []contract.TaskSummary) []TreeItem {
	if len(tasks) == 0 {
		return nil
	}
	minLevel := tasks[0].OutlineLevel
	for _, t := range tasks {
		minLevel = min(minLevel, t.OutlineLevel)
	}

	items := make([]TreeItem, len(tasks))
	for i, t := range tasks {
		level := t.OutlineLevel - minLevel + 1
		items[i] = TreeItem{
			Title:     t.Name,
			ID:        t.ID,
			Level:     level,
			IsLast:    isLastSibling(tasks, i),
			Milestone: t.Milestone,
			Percent:   t.PercentComplete,
			Detail:    taskDetail(t),
		}
	}
	return items
}

// isLastSibling reports whether no later task shares the level of tasks[i]
// before the outline climbs above it.
func isLastSibling(tasks []contract.TaskSummary, i int) bool {
	level := tasks[i].OutlineLevel
	for _, t := range tasks[i+1:] {
		switch {
		case t.OutlineLevel == level:
			return false
		case t.OutlineLevel < level:
			return true
		}
	}
	return true
}

func taskDetail(t contract.TaskSummary) string {
	var parts []string
	if t.DurationMin != nil && !t.Milestone {
		parts = append(parts, WorkDuration(*t.DurationMin))
	}
	if t.PercentComplete != nil && *t.PercentComplete > 0 {
		parts = append(parts, fmt.Sprintf("%d%%", *t.PercentComplete))
	}
	return strings.Join(parts, " · ")
}

// FormatHistory renders recent conversions newest first.
func FormatHistory(records []*domain.ConversionRecord, now time.Time) string {
	if len(records) == 0 {
		return Dim("No conversions recorded yet.") + "\n"
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			Dim(r.DisplayID()),
			HumanTimestampFrom(r.CreatedAt, now),
			TruncateText(r.Filename, 32),
			formatOrDash(r.Format),
			StatusPill(r.Status),
			strconv.Itoa(r.TaskCount),
			strconv.Itoa(r.NoteCount),
			fmt.Sprintf("%d ms", r.ElapsedMs),
		})
	}
	return Table{
		Headers:    []string{"ID", "WHEN", "FILE", "FORMAT", "STATUS", "TASKS", "NOTES", "ELAPSED"},
		Rows:       rows,
		RightAlign: map[int]bool{5: true, 6: true, 7: true},
	}.Render()
}

func formatOrDash(f string) string {
	if f == "" {
		return Dim("-")
	}
	return f
}

// FormatHistoryDetail renders one stored conversion with its notes.
func FormatHistoryDetail(rec *domain.ConversionRecord, notes []domain.Note) string {
	var b strings.Builder
	b.WriteString(Header("Conversion "+rec.DisplayID()) + "\n")
	fields := []field{
		{"ID", rec.ID},
		{"File", rec.Filename},
		{"Status", StatusPill(rec.Status)},
		{"Format", formatOrDash(rec.Format)},
		{"Content", formatOrDash(rec.ContentType)},
		{"When", rec.CreatedAt.UTC().Format(time.RFC3339)},
		{"Input", HumanBytes(rec.InputBytes)},
	}
	if rec.Succeeded() {
		fields = append(fields,
			field{"Output", HumanBytes(rec.OutputBytes)},
			field{"Tasks", strconv.Itoa(rec.TaskCount)},
			field{"Resources", strconv.Itoa(rec.ResourceCount)},
			field{"Calendars", strconv.Itoa(rec.CalendarCount)},
		)
	} else {
		fields = append(fields,
			field{"Stage", rec.Stage},
			field{"Kind", StyleRed.Render(rec.Kind)},
			field{"Message", rec.Message},
		)
	}
	fields = append(fields, field{"Elapsed", fmt.Sprintf("%d ms", rec.ElapsedMs)})
	b.WriteString(renderFields(fields))
	if len(notes) > 0 {
		b.WriteString("\n" + FormatNotes(notes))
	}
	return b.String()
}

// SniffRow is one file classified by the sniff command.
type SniffRow struct {
	Path   string
	Format format.Format
	Err    error
}

func FormatSniffResults(rows []SniffRow) string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		switch {
		case r.Err != nil:
			out = append(out, []string{r.Path, StyleRed.Render("unrecognized"), Dim(r.Err.Error())})
		default:
			out = append(out, []string{r.Path, StyleGreen.Render(string(r.Format)), r.Format.Description()})
		}
	}
	return RenderTable([]string{"FILE", "FORMAT", "DETAIL"}, out)
}

// FormatConversionError renders a core failure for the terminal.
func FormatConversionError(ce *contract.ConversionError) string {
	fields := []field{
		{"Stage", string(ce.Stage)},
		{"Kind", StyleRed.Render(string(ce.Kind))},
	}
	if ce.Format != "" {
		fields = append(fields, field{"Format", string(ce.Format)})
	}
	fields = append(fields, field{"Message", ce.Message})
	return Header("Conversion failed") + "\n" + renderFields(fields)
}
