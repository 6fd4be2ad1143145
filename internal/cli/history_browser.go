package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/upf/internal/cli/formatter"
	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/service"
)

type historyLoadedMsg struct {
	records []*domain.ConversionRecord
	err     error
}

type detailLoadedMsg struct {
	entry *service.HistoryEntry
	err   error
}

// historyBrowser lists recent conversions and opens one in a scrollable
// detail pane.
type historyBrowser struct {
	ctx   context.Context
	svc   service.ConversionService
	limit int
	now   func() time.Time

	records []*domain.ConversionRecord
	cursor  int
	loading bool
	err     error

	filtering bool
	filter    string

	detail *service.HistoryEntry
	vp     viewport.Model
	width  int
	height int
}

func newHistoryBrowser(ctx context.Context, svc service.ConversionService, limit int, now func() time.Time) *historyBrowser {
	vp := viewport.New(80, 20)
	vp.KeyMap = detailKeyMap()
	return &historyBrowser{
		ctx:     ctx,
		svc:     svc,
		limit:   limit,
		now:     now,
		loading: true,
		vp:      vp,
		width:   80,
		height:  24,
	}
}

// detailKeyMap keeps letter keys free for the browser's own bindings.
func detailKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		Up:           key.NewBinding(key.WithKeys("up")),
		Down:         key.NewBinding(key.WithKeys("down")),
	}
}

func (m *historyBrowser) shortHelp() []key.Binding {
	if m.detail != nil {
		return []key.Binding{
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "scroll")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
			key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

func (m *historyBrowser) Init() tea.Cmd {
	return m.loadRecords()
}

func (m *historyBrowser) loadRecords() tea.Cmd {
	ctx, svc, limit := m.ctx, m.svc, m.limit
	return func() tea.Msg {
		records, err := svc.Recent(ctx, limit)
		return historyLoadedMsg{records: records, err: err}
	}
}

func (m *historyBrowser) loadDetail(id string) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		entry, err := svc.Get(ctx, id)
		return detailLoadedMsg{entry: entry, err: err}
	}
}

func (m *historyBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.vp.Width = msg.Width
		m.vp.Height = max(1, msg.Height-2)
		return m, nil

	case historyLoadedMsg:
		m.loading = false
		m.err = historyError(msg.err)
		m.records = msg.records
		m.cursor = min(m.cursor, max(0, len(m.visible())-1))
		return m, nil

	case detailLoadedMsg:
		if msg.err != nil {
			m.err = historyError(msg.err)
			return m, nil
		}
		m.err = nil
		m.detail = msg.entry
		m.vp.SetContent(formatter.FormatHistoryDetail(msg.entry.Record, msg.entry.Notes))
		m.vp.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch {
		case m.detail != nil:
			return m.updateDetail(msg)
		case m.filtering:
			return m.updateFilter(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *historyBrowser) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visible()
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(visible) {
			return m, m.loadDetail(visible[m.cursor].ID)
		}
	case "/":
		m.filtering = true
		m.filter = ""
		m.cursor = 0
	case "r":
		m.loading = true
		return m, m.loadRecords()
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m *historyBrowser) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter = ""
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyBackspace:
		if len(m.filter) > 0 {
			m.filter = m.filter[:len(m.filter)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.filter += string(msg.Runes)
	}
	m.cursor = 0
	return m, nil
}

func (m *historyBrowser) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.detail = nil
		return m, nil
	case "q":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

// visible applies the filter to file name, format and status.
func (m *historyBrowser) visible() []*domain.ConversionRecord {
	if m.filter == "" {
		return m.records
	}
	needle := strings.ToLower(m.filter)
	var out []*domain.ConversionRecord
	for _, r := range m.records {
		hay := strings.ToLower(r.Filename + " " + r.Format + " " + string(r.Status))
		if strings.Contains(hay, needle) {
			out = append(out, r)
		}
	}
	return out
}

func (m *historyBrowser) View() string {
	var b strings.Builder
	switch {
	case m.detail != nil:
		b.WriteString(m.vp.View() + "\n")
	case m.loading:
		b.WriteString(formatter.Dim("Loading conversions…") + "\n")
	default:
		b.WriteString(m.listView())
	}
	if m.err != nil {
		b.WriteString(formatter.StyleRed.Render("Error: "+m.err.Error()) + "\n")
	}
	b.WriteString(m.helpView())
	return b.String()
}

func (m *historyBrowser) listView() string {
	visible := m.visible()
	var b strings.Builder
	b.WriteString(formatter.Header(fmt.Sprintf("Conversions (%d)", len(visible))) + "\n")
	if m.filtering || m.filter != "" {
		b.WriteString(formatter.StylePurple.Render("/"+m.filter) + "\n")
	}
	if len(visible) == 0 {
		b.WriteString(formatter.Dim("No conversions match.") + "\n")
		return b.String()
	}

	now := time.Now()
	if m.now != nil {
		now = m.now()
	}
	rows := make([][]string, 0, len(visible))
	for i, r := range visible {
		marker := " "
		if i == m.cursor {
			marker = formatter.StyleHeader.Render("▸")
		}
		rows = append(rows, []string{
			marker,
			r.DisplayID(),
			formatter.HumanTimestampFrom(r.CreatedAt, now),
			formatter.TruncateText(r.Filename, 32),
			r.Format,
			formatter.StatusPill(r.Status),
		})
	}
	b.WriteString(formatter.RenderTable([]string{"", "ID", "WHEN", "FILE", "FORMAT", "STATUS"}, rows))
	return b.String()
}

func (m *historyBrowser) helpView() string {
	hints := make([]string, 0, 4)
	for _, k := range m.shortHelp() {
		h := k.Help()
		hints = append(hints, formatter.Dim(h.Key+": "+h.Desc))
	}
	return strings.Join(hints, "  ")
}
