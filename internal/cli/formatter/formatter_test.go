package formatter

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/upf/internal/contract"
	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/format"
)

// ansiPattern matches ANSI escape sequences.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func ptr(v int) *int { return &v }

func TestTable_Render(t *testing.T) {
	got := stripANSI(Table{
		Headers:    []string{"A", "BB"},
		Rows:       [][]string{{"x", "1"}, {"long", "22"}},
		RightAlign: map[int]bool{1: true},
	}.Render())

	want := "A     BB\n" +
		"────  ──\n" +
		"x      1\n" +
		"long  22\n"
	assert.Equal(t, want, got)
}

func TestRenderTable_ShortRowsAndNoHeaders(t *testing.T) {
	assert.Empty(t, RenderTable(nil, [][]string{{"a"}}))

	got := stripANSI(RenderTable([]string{"FILE", "FORMAT"}, [][]string{{"a.mpp"}}))
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "a.mpp  ", lines[2])
}

func TestRenderProgress(t *testing.T) {
	tests := []struct {
		percent int
		want    string
	}{
		{0, "[░░░░░░░░░░]   0%"},
		{45, "[████░░░░░░]  45%"},
		{100, "[██████████] 100%"},
		{150, "[██████████] 100%"},
		{-5, "[░░░░░░░░░░]   0%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripANSI(RenderProgress(tt.percent, 10)))
	}
	assert.Equal(t, "[█░]  50%", stripANSI(RenderProgress(50, 0)))
}

func TestHumanTimestampFrom(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"just now", now.Add(-20 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanTimestampFrom(tt.at, now))
		})
	}
	assert.NotEmpty(t, HumanTimestampFrom(now.Add(-30*24*time.Hour), now))
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "0 B", HumanBytes(0))
	assert.Equal(t, "1023 B", HumanBytes(1023))
	assert.Equal(t, "1.0 KiB", HumanBytes(1024))
	assert.Equal(t, "1.5 KiB", HumanBytes(1536))
	assert.Equal(t, "50.0 MiB", HumanBytes(50<<20))
}

func TestWorkDuration(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h"},
		{480, "1d"},
		{600, "1d 2h"},
		{1000, "2d 40m"},
		{-90, "-1h 30m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WorkDuration(tt.minutes), tt.minutes)
	}
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "abcd…", TruncateText("abcdefgh", 5))
	assert.Equal(t, "…", TruncateText("abc", 1))
	assert.Equal(t, "Café…", TruncateText("Café €uro", 5))
	assert.Equal(t, "abc", TruncateText("abc", 0))
}

func TestStatusPill(t *testing.T) {
	assert.Contains(t, stripANSI(StatusPill(domain.ConversionSucceeded)), "ok")
	assert.Contains(t, stripANSI(StatusPill(domain.ConversionFailed)), "failed")
	assert.Contains(t, stripANSI(StatusPill("queued")), "queued")
}

func TestOutlineItems(t *testing.T) {
	tasks := []contract.TaskSummary{
		{ID: 1, Name: "Phase", OutlineLevel: 1},
		{ID: 2, Name: "Work", OutlineLevel: 2, DurationMin: ptr(480), PercentComplete: ptr(50)},
		{ID: 3, Name: "Gate", OutlineLevel: 2, Milestone: true, DurationMin: ptr(0)},
		{ID: 4, Name: "Close", OutlineLevel: 1, PercentComplete: ptr(100)},
	}
	items := OutlineItems(tasks)
	require.Len(t, items, 4)

	assert.Equal(t, []bool{false, false, true, true},
		[]bool{items[0].IsLast, items[1].IsLast, items[2].IsLast, items[3].IsLast})
	assert.Equal(t, []int{1, 2, 2, 1},
		[]int{items[0].Level, items[1].Level, items[2].Level, items[3].Level})
	assert.Equal(t, "1d · 50%", items[1].Detail)
	assert.Empty(t, items[2].Detail)
	assert.Equal(t, "100%", items[3].Detail)
}

func TestOutlineItems_ShiftsLevels(t *testing.T) {
	items := OutlineItems([]contract.TaskSummary{
		{ID: 0, Name: "Project", OutlineLevel: 0},
		{ID: 1, Name: "Task", OutlineLevel: 1},
	})
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Level)
	assert.Equal(t, 2, items[1].Level)
	assert.Nil(t, OutlineItems(nil))
}

func TestRenderTree(t *testing.T) {
	items := OutlineItems([]contract.TaskSummary{
		{ID: 1, Name: "Phase", OutlineLevel: 1},
		{ID: 2, Name: "Work", OutlineLevel: 2, DurationMin: ptr(480)},
		{ID: 3, Name: "Gate", OutlineLevel: 2, Milestone: true},
		{ID: 4, Name: "Close", OutlineLevel: 1, PercentComplete: ptr(100)},
	})
	lines := strings.Split(strings.TrimSuffix(stripANSI(RenderTree(items)), "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "├─ #1 Phase", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "│  ├─ #2 Work"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], "[ 1d ]"), lines[1])
	assert.Equal(t, "│  └─ ◆ #3 Gate", strings.TrimRight(lines[2], " "))
	assert.True(t, strings.HasPrefix(lines[3], "└─ ✔ #4 Close"), lines[3])
	assert.Empty(t, RenderTree(nil))
}

func TestRenderTree_ClosedBranchesUseBlankIndent(t *testing.T) {
	items := OutlineItems([]contract.TaskSummary{
		{ID: 1, Name: "Only", OutlineLevel: 1},
		{ID: 2, Name: "Child", OutlineLevel: 2},
	})
	lines := strings.Split(strings.TrimSuffix(stripANSI(RenderTree(items)), "\n"), "\n")
	assert.Equal(t, []string{"└─ #1 Only", "   └─ #2 Child"}, lines)
}

func TestFormatConversion(t *testing.T) {
	res := &contract.ConvertResult{
		XML:    make([]byte, 2048),
		Format: format.TemplateVariant,
		Stats:  contract.Stats{TaskCount: 2, ResourceCount: 1, CalendarCount: 1, ElapsedMillis: 4},
		Notes:  []domain.Note{{Code: domain.NoteTemplateProgressCleared, Message: "cleared progress on 1 task(s)"}},
	}
	out := stripANSI(FormatConversion(res, "starter.mpt", "starter.xml"))

	assert.Contains(t, out, "CONVERTED")
	assert.Contains(t, out, "starter.mpt (template_variant)")
	assert.Contains(t, out, "starter.xml (2.0 KiB)")
	assert.Contains(t, out, "Resources  1")
	assert.Contains(t, out, "Elapsed    4 ms")
	assert.Contains(t, out, "NOTES (1)")
	assert.Contains(t, out, "template_progress_cleared  cleared progress on 1 task(s)")
}

func TestFormatConversion_NoNotesSection(t *testing.T) {
	out := stripANSI(FormatConversion(&contract.ConvertResult{Format: format.LegacyBinary}, "a.mpp", "a.xml"))
	assert.NotContains(t, out, "NOTES")
}

func TestFormatProjectInfo(t *testing.T) {
	start := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	info := &contract.ProjectInfo{
		Name:      "Office Move",
		Format:    format.XMLVariant,
		StartDate: &start,
		Stats:     contract.Stats{TaskCount: 1},
		Tasks:     []contract.TaskSummary{{ID: 1, Name: "Pack", OutlineLevel: 1}},
	}

	plain := stripANSI(FormatProjectInfo(info, "move.xml", false))
	assert.Contains(t, plain, "Office Move")
	assert.Contains(t, plain, "2024-03-04 08:00")
	assert.Contains(t, plain, "Finish     unset")
	assert.NotContains(t, plain, "OUTLINE")
	assert.NotContains(t, plain, "Progress")

	withTree := stripANSI(FormatProjectInfo(info, "move.xml", true))
	assert.Contains(t, withTree, "OUTLINE")
	assert.Contains(t, withTree, "└─ #1 Pack")
}

func TestOverallProgress(t *testing.T) {
	_, ok := OverallProgress(nil)
	assert.False(t, ok)
	_, ok = OverallProgress([]contract.TaskSummary{{ID: 1, OutlineLevel: 1}})
	assert.False(t, ok)

	tasks := []contract.TaskSummary{
		{ID: 1, OutlineLevel: 1, PercentComplete: ptr(0)}, // summary, skipped
		{ID: 2, OutlineLevel: 2, DurationMin: ptr(300), PercentComplete: ptr(100)},
		{ID: 3, OutlineLevel: 2, DurationMin: ptr(100)},
	}
	pct, ok := OverallProgress(tasks)
	require.True(t, ok)
	assert.Equal(t, 75, pct)

	info := &contract.ProjectInfo{Name: "P", Tasks: tasks}
	assert.Contains(t, stripANSI(FormatProjectInfo(info, "p.xml", false)), "Progress   [")
}

func TestFormatHistory(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, stripANSI(FormatHistory(nil, now)), "No conversions")

	records := []*domain.ConversionRecord{
		{ID: "0123456789ab", Filename: "plan.mpp", Format: "legacy_binary", Status: domain.ConversionSucceeded,
			TaskCount: 12, NoteCount: 1, ElapsedMs: 7, CreatedAt: now.Add(-2 * time.Minute)},
		{ID: "fedcba987654", Filename: "junk.bin", Status: domain.ConversionFailed, CreatedAt: now.Add(-3 * time.Hour)},
	}
	out := stripANSI(FormatHistory(records, now))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[2], "01234567")
	assert.Contains(t, lines[2], "2m ago")
	assert.Contains(t, lines[2], "legacy_binary")
	assert.Contains(t, lines[2], "7 ms")
	assert.Contains(t, lines[3], "failed")
	assert.Contains(t, lines[3], "3h ago")
}

func TestFormatHistoryDetail(t *testing.T) {
	ok := &domain.ConversionRecord{ID: "abc", Filename: "a.mpp", Status: domain.ConversionSucceeded, TaskCount: 3, OutputBytes: 100}
	out := stripANSI(FormatHistoryDetail(ok, []domain.Note{{Code: domain.NoteSelfLoop, Message: "task 3"}}))
	assert.Contains(t, out, "CONVERSION ABC")
	assert.Contains(t, out, "100 B")
	assert.Contains(t, out, "self_loop")
	assert.NotContains(t, out, "Stage")

	failed := &domain.ConversionRecord{ID: "def", Status: domain.ConversionFailed, Stage: "decode", Kind: "CORRUPT_STRUCTURE", Message: "short task table"}
	out = stripANSI(FormatHistoryDetail(failed, nil))
	assert.Contains(t, out, "decode")
	assert.Contains(t, out, "CORRUPT_STRUCTURE")
	assert.Contains(t, out, "short task table")
	assert.NotContains(t, out, "Resources")
}

func TestFormatSniffResults(t *testing.T) {
	out := stripANSI(FormatSniffResults([]SniffRow{
		{Path: "a.mpp", Format: format.LegacyBinary},
		{Path: "b.txt", Err: errors.New("unrecognized format")},
	}))
	assert.Contains(t, out, "legacy_binary")
	assert.Contains(t, out, format.LegacyBinary.Description())
	assert.Contains(t, out, "unrecognized")
}

func TestFormatConversionError(t *testing.T) {
	ce := &contract.ConversionError{
		Stage:   contract.StageDecode,
		Kind:    contract.KindCorruptStructure,
		Message: "truncated task table",
		Format:  format.LegacyBinary,
	}
	out := stripANSI(FormatConversionError(ce))
	assert.Contains(t, out, "CONVERSION FAILED")
	assert.Contains(t, out, "Stage    decode")
	assert.Contains(t, out, "Format   legacy_binary")
	assert.Contains(t, out, "truncated task table")
}
