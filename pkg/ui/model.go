package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treeline/internal/datasource"
	"github.com/vanderheijden86/treeline/pkg/analysis"
	"github.com/vanderheijden86/treeline/pkg/config"
	"github.com/vanderheijden86/treeline/pkg/debug"
	"github.com/vanderheijden86/treeline/pkg/metrics"
	"github.com/vanderheijden86/treeline/pkg/tree"
	"github.com/vanderheijden86/treeline/pkg/watcher"
)

// View width threshold for the side-by-side notes pane
const SplitViewThreshold = 100

// FileChangedMsg is sent when the outline source changes on disk
type FileChangedMsg struct{}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// Model is the main Bubble Tea model for treeline. The engine owns every
// piece of tree state; the model owns terminal concerns only: pane sizes,
// the notes viewport, status messages and the watcher plumbing.
type Model struct {
	engine  *tree.Engine
	outline OutlineModel
	theme   Theme

	// Data
	dataPath string           // outline source path, for reloads
	watcher  *watcher.Watcher // file watcher for live reload
	stats    analysis.ShapeStats

	// Notes pane
	viewport  viewport.Model
	renderer  *MarkdownRenderer
	showNotes bool
	notesID   string // node whose notes the viewport holds

	// Layout
	showGuides  bool
	isSplitView bool
	ready       bool
	width       int
	height      int

	// Status message (for temporary feedback)
	statusMsg     string
	statusIsError bool
}

// NewModel builds a model over an engine. The model starts ready with
// default dimensions so slow terminals never see an initializing screen;
// WindowSizeMsg corrects the sizes once the terminal reports them.
func NewModel(engine *tree.Engine) Model {
	theme := DefaultTheme(lipgloss.NewRenderer(os.Stdout))

	const defaultWidth = 120
	const defaultHeight = 40

	m := Model{
		engine:     engine,
		theme:      theme,
		outline:    NewOutlineModel(engine, theme),
		viewport:   viewport.New(defaultWidth/2, defaultHeight-2),
		renderer:   NewMarkdownRenderer(defaultWidth / 2),
		showNotes:  true,
		showGuides: true,
		ready:      true,
		width:      defaultWidth,
		height:     defaultHeight,
		stats:      analysis.AnalyzeShape(engine.Tree()),
	}
	m.isSplitView = m.width > SplitViewThreshold

	// The widget starts focused; roving focus already sits on the first
	// tabbable node.
	if st := engine.State(); st.TabbableID != "" && !st.IsFocused {
		engine.Dispatch(tree.Focus{ID: st.TabbableID})
	}
	m.resizePanes()
	return m
}

// WithDataPath records the outline source for reloads and the header.
func (m Model) WithDataPath(path string) Model {
	m.dataPath = path
	if path != "" {
		m.outline.SetTitle(path)
	}
	return m
}

// WithWatcher attaches a started watcher whose change channel drives
// live reload.
func (m Model) WithWatcher(w *watcher.Watcher) Model {
	m.watcher = w
	return m
}

// WithConfig applies UI preferences from the app configuration.
func (m Model) WithConfig(cfg config.Config) Model {
	m.showNotes = cfg.UI.NotesVisible()
	m.showGuides = cfg.UI.GuidesVisible()
	m.outline.SetShowGuides(m.showGuides)
	return m
}

// Stop releases the watcher. Call when the program exits.
func (m *Model) Stop() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
}

// Engine exposes the underlying engine, mainly for tests.
func (m Model) Engine() *tree.Engine { return m.engine }

// FocusedID returns the node the roving focus sits on.
func (m Model) FocusedID() string { return m.engine.State().TabbableID }

// NotesVisible reports whether the notes pane is shown.
func (m Model) NotesVisible() bool { return m.showNotes }

// StatusMessage returns the current footer message, empty when none.
func (m Model) StatusMessage() string { return m.statusMsg }

func (m Model) Init() tea.Cmd {
	if m.watcher != nil {
		return WatchFileCmd(m.watcher)
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case FileChangedMsg:
		m = m.reloadFromDisk()
		if m.watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.watcher))
		}

	case tea.FocusMsg:
		if st := m.engine.State(); !st.IsFocused && st.TabbableID != "" {
			m.engine.Dispatch(tree.Focus{ID: st.TabbableID})
		}

	case tea.BlurMsg:
		m.engine.Blur()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.isSplitView = msg.Width > SplitViewThreshold
		m.resizePanes()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, tea.Batch(cmds...)
}

// handleKey routes a key press: shell keys first (quit, panes, yank),
// everything else through the engine's interpreter.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "tab":
		m.showNotes = !m.showNotes
		m.resizePanes()
		if m.showNotes {
			m.refreshNotes()
		}
		return m, nil

	case "y":
		m = m.yankSelection()
		return m, nil

	case "pgup":
		if m.showNotes {
			m.viewport.HalfViewUp()
		}
		return m, nil

	case "pgdown":
		if m.showNotes {
			m.viewport.HalfViewDown()
		}
		return m, nil

	case "ctrl+g":
		m.showGuides = !m.showGuides
		m.outline.SetShowGuides(m.showGuides)
		return m, nil
	}

	ev, ok := keyEventFrom(msg)
	if !ok {
		return m, nil
	}

	m.statusMsg = ""
	m.statusIsError = false
	m.engine.HandleKey(ev)
	m.outline.Sync()
	m.refreshNotes()
	return m, nil
}

// yankSelection copies the selected ids to the clipboard, one per line.
// Without a selection it copies the focused node instead.
func (m Model) yankSelection() Model {
	ids := m.engine.State().SelectedIDs.Values()
	if len(ids) == 0 {
		if id := m.engine.State().TabbableID; id != "" {
			ids = []string{id}
		}
	}
	if len(ids) == 0 {
		return m
	}

	if err := clipboard.WriteAll(strings.Join(ids, "\n")); err != nil {
		m.statusMsg = fmt.Sprintf("Clipboard error: %v", err)
		m.statusIsError = true
		return m
	}
	if len(ids) == 1 {
		m.statusMsg = fmt.Sprintf("Copied %s", ids[0])
	} else {
		m.statusMsg = fmt.Sprintf("Copied %d ids", len(ids))
	}
	m.statusIsError = false
	return m
}

// reloadFromDisk re-reads the outline source and swaps the nodes into the
// engine, keeping selection and expansion for ids that survived.
func (m Model) reloadFromDisk() Model {
	if m.dataPath == "" {
		return m
	}
	debug.Log("reload: source changed path=%s", m.dataPath)

	nodes, err := datasource.LoadPath(m.dataPath)
	if err != nil {
		m.statusMsg = fmt.Sprintf("Reload failed: %v", err)
		m.statusIsError = true
		return m
	}
	if err := m.engine.SetNodes(nodes); err != nil {
		m.statusMsg = fmt.Sprintf("Reload failed: %v", err)
		m.statusIsError = true
		return m
	}

	m.stats = analysis.AnalyzeShape(m.engine.Tree())
	m.outline.Sync()
	m.refreshNotes()
	m.statusMsg = fmt.Sprintf("Reloaded %d nodes", len(nodes))
	m.statusIsError = false
	return m
}

// refreshNotes re-renders the viewport when focus moved to another node.
func (m *Model) refreshNotes() {
	if !m.showNotes {
		return
	}
	id := m.engine.State().TabbableID
	if id == m.notesID {
		return
	}
	m.notesID = id

	node, ok := m.engine.Tree().Get(id)
	if !ok || node.Notes == "" {
		m.viewport.SetContent(m.theme.MutedText.Render("No notes."))
		return
	}
	defer metrics.Timer(metrics.NotesRender)()
	m.viewport.SetContent(m.renderer.Render(node.Notes))
	m.viewport.GotoTop()
}

// resizePanes recomputes pane dimensions for the current layout.
func (m *Model) resizePanes() {
	bodyHeight := m.height - 1 // keep 1 row for the footer
	if bodyHeight < 5 {
		bodyHeight = 5
	}

	if m.isSplitView && m.showNotes {
		// Two panels with border overhead of 2 cells each
		availWidth := m.width - 4
		if availWidth < 10 {
			availWidth = 10
		}
		outlineWidth := availWidth * 55 / 100
		notesWidth := availWidth - outlineWidth

		m.outline.SetSize(outlineWidth, bodyHeight-2)
		m.viewport = viewport.New(notesWidth, bodyHeight-3)
		m.renderer.SetWidth(notesWidth)
		m.notesID = "" // force re-render at the new width
		m.refreshNotes()
	} else {
		m.outline.SetSize(m.width, bodyHeight)
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var body string
	if m.isSplitView && m.showNotes {
		body = m.renderSplitView()
	} else {
		body = m.outline.View()
	}

	footer := m.renderFooter()

	finalStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		MaxHeight(m.height)

	return finalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body, footer))
}

// renderSplitView renders the outline beside the notes pane.
func (m Model) renderSplitView() string {
	outlinePane := FocusedPanelStyle.Render(m.outline.View())

	title := "Notes"
	if node, ok := m.engine.Tree().Get(m.engine.State().TabbableID); ok && node.Name != "" {
		title = node.Name
	}
	titleBar := m.theme.PrimaryBold.Render(truncate(title, m.viewport.Width))
	notesPane := PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleBar, m.viewport.View()))

	return lipgloss.JoinHorizontal(lipgloss.Top, outlinePane, notesPane)
}

// renderFooter renders the status bar: a transient message when set,
// otherwise selection counts, shape stats and key hints.
func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		var msgStyle lipgloss.Style
		if m.statusIsError {
			msgStyle = lipgloss.NewStyle().
				Background(ColorDangerBg).
				Foreground(ColorDanger).
				Bold(true).
				Padding(0, 2)
		} else {
			msgStyle = lipgloss.NewStyle().
				Background(ColorSuccessBg).
				Foreground(ColorSuccess).
				Bold(true).
				Padding(0, 2)
		}
		prefix := "✓ "
		if m.statusIsError {
			prefix = "✗ "
		}
		msgSection := msgStyle.Render(prefix + m.statusMsg)
		remaining := m.width - lipgloss.Width(msgSection)
		if remaining < 0 {
			remaining = 0
		}
		filler := lipgloss.NewStyle().Width(remaining).Render("")
		return lipgloss.JoinHorizontal(lipgloss.Bottom, msgSection, filler)
	}

	st := m.engine.State()
	countStyle := lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	counts := fmt.Sprintf(" %d selected", st.SelectedIDs.Len())
	if half := st.HalfSelectedIDs.Len(); half > 0 {
		counts += fmt.Sprintf(" · %d partial", half)
	}
	shape := fmt.Sprintf(" · %d nodes · depth %d", m.stats.NodeCount, m.stats.MaxDepth)

	keyStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	labelStyle := lipgloss.NewStyle().Foreground(ColorText)

	type hint struct {
		key   string
		label string
	}
	hints := []hint{
		{"↑↓", "move"},
		{"←→", "fold"},
		{"space", "select"},
		{"*", "expand"},
		{"tab", "notes"},
		{"y", "yank"},
		{"q", "quit"},
	}
	var hintParts []string
	for _, h := range hints {
		hintParts = append(hintParts, keyStyle.Render(h.key)+":"+labelStyle.Render(h.label))
	}
	hintBar := strings.Join(hintParts, "  ")

	left := countStyle.Render(counts) + mutedStyle.Render(shape)
	remaining := m.width - lipgloss.Width(left) - lipgloss.Width(hintBar) - 1
	if remaining < 1 {
		return left
	}
	return left + strings.Repeat(" ", remaining) + hintBar
}
