package cli

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/pipeline"
	"github.com/alexanderramin/upf/internal/service"
	"github.com/alexanderramin/upf/internal/teatest"
	"github.com/alexanderramin/upf/internal/testutil"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func plainView(d *teatest.Driver) string {
	return ansiPattern.ReplaceAllString(d.View(), "")
}

func seedBrowser(t *testing.T) (*teatest.Driver, []*domain.ConversionRecord) {
	t.Helper()
	ctx := context.Background()
	app, repo := testApp(t)
	now := testutil.Date(2026, 2, 7, 12, 0)

	alpha := testutil.NewTestRecord("alpha.mpp", testutil.WithRecordCreatedAt(now.Add(-2*time.Hour)))
	beta := testutil.NewTestRecord("beta.mpt",
		testutil.WithRecordFormat("template_variant"),
		testutil.WithRecordFailure("decode", "CORRUPT_STRUCTURE", "short task table"),
		testutil.WithRecordCreatedAt(now.Add(-5*time.Minute)))
	require.NoError(t, repo.Create(ctx, alpha))
	require.NoError(t, repo.Create(ctx, beta))

	m := newHistoryBrowser(ctx, app.Conversions, 10, func() time.Time { return now })
	d := teatest.New(t, m, teatest.WithSize(120, 30))
	d.DrainInit()
	return d, []*domain.ConversionRecord{beta, alpha}
}

func TestHistoryBrowser_ListsNewestFirst(t *testing.T) {
	d, records := seedBrowser(t)
	view := plainView(d)

	assert.Contains(t, view, "CONVERSIONS (2)")
	assert.Contains(t, view, "▸  "+records[0].DisplayID())
	assert.Contains(t, view, "5m ago")
	assert.Contains(t, view, "2h ago")
	assert.Contains(t, view, "enter: open")
	assert.Less(t, strings.Index(view, "beta.mpt"), strings.Index(view, "alpha.mpp"))
}

func TestHistoryBrowser_OpensDetail(t *testing.T) {
	d, records := seedBrowser(t)

	d.PressDown()
	d.PressEnter()
	view := plainView(d)
	assert.Contains(t, view, "CONVERSION "+strings.ToUpper(records[1].DisplayID()))
	assert.Contains(t, view, "alpha.mpp")
	assert.Contains(t, view, "esc: back")

	d.PressEsc()
	view = plainView(d)
	assert.Contains(t, view, "CONVERSIONS (2)")
	assert.Contains(t, view, "▸  "+records[1].DisplayID())

	d.PressUp()
	d.PressEnter()
	view = plainView(d)
	assert.Contains(t, view, "CORRUPT_STRUCTURE")
	assert.Contains(t, view, "short task table")
}

func TestHistoryBrowser_Filter(t *testing.T) {
	d, _ := seedBrowser(t)

	d.PressKey('/')
	d.Type("alpha")
	view := plainView(d)
	assert.Contains(t, view, "/alpha")
	assert.Contains(t, view, "CONVERSIONS (1)")
	assert.NotContains(t, view, "beta.mpt")

	d.PressEnter()
	d.PressEnter()
	assert.Contains(t, plainView(d), "CONVERSION ")
	d.PressEsc()

	d.PressKey('/')
	d.Type("zzz")
	assert.Contains(t, plainView(d), "No conversions match.")

	d.PressEsc()
	assert.Contains(t, plainView(d), "CONVERSIONS (2)")
}

func TestHistoryBrowser_Quit(t *testing.T) {
	d, _ := seedBrowser(t)
	d.PressKey('q')
	assert.True(t, d.Quitting)

	d, _ = seedBrowser(t)
	d.PressEnter()
	d.PressCtrlC()
	assert.True(t, d.Quitting)
}

func TestHistoryBrowser_HistoryDisabled(t *testing.T) {
	svc := service.NewConversionService(pipeline.New())
	d := teatest.New(t, newHistoryBrowser(context.Background(), svc, 10, nil))
	d.DrainInit()

	assert.Contains(t, plainView(d), "history is disabled")
	d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.Contains(t, plainView(d), "history is disabled")
}
