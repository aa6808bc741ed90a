// Package tui is the terminal front end of the diagram editor: a tool
// palette, the canvas, the live takeoff list and a status line.
package tui

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"wattsup/internal/config"
	"wattsup/internal/diagram"
	"wattsup/internal/editor"
	"wattsup/internal/render"
	"wattsup/internal/store"
)

const (
	paletteWidth = 20
	takeoffWidth = 24

	doubleClickWindow = 400 * time.Millisecond
	toastTTL          = 4 * time.Second
)

type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayConfirmClear
	overlayConfirmQuit
	overlayExport
)

// Options wires the model to its collaborators.
type Options struct {
	Context  context.Context
	Config   *config.Config
	Store    store.Store
	Exporter *render.Exporter
	Grid     *render.Grid
	Logger   *log.Logger

	// Clipboard writes text to the system clipboard. Defaults to
	// clipboard.WriteAll.
	Clipboard func(string) error
	Now       func() time.Time
	// Load fetches the latest saved canvas on start.
	Load bool
}

type target struct {
	id int64
	on bool
}

// Model is the bubbletea model.
type Model struct {
	ctx         context.Context
	cfg         *config.Config
	editor      *editor.Editor
	store       store.Store
	exporter    *render.Exporter
	grid        *render.Grid
	logger      *log.Logger
	copyText    func(string) error
	now         func() time.Time
	loadOnStart bool

	width  int
	height int

	overlay    overlay
	helpScroll int

	// mouse state
	pressed     bool
	pressTarget target
	inCanvas    bool
	lastClick   target
	lastClickAt time.Time

	// keyboard pointer, in canvas pixels
	pointer     diagram.Point
	showPointer bool
	grabbing    bool

	toast    string
	toastErr bool
	toastSeq int
}

// New builds the model. Without the pro capability the model only shows a
// locked placeholder.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	grid := opts.Grid
	if grid == nil {
		grid = render.NewGrid(cfg.Canvas.ShowGrid)
	}
	m := Model{
		ctx:         ctx,
		cfg:         cfg,
		store:       opts.Store,
		exporter:    opts.Exporter,
		grid:        grid,
		logger:      logger,
		copyText:    opts.Clipboard,
		now:         opts.Now,
		loadOnStart: opts.Load,
	}
	if m.copyText == nil {
		m.copyText = clipboard.WriteAll
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.exporter == nil {
		m.exporter = render.NewExporter(render.ExportConfig{
			Dir:         cfg.SaveDirectory,
			Prefix:      cfg.Export.Prefix,
			JPEGQuality: cfg.Export.JPEGQuality,
			Scale:       cfg.Export.Scale,
		}, grid, logger)
	}

	ed, err := editor.New(editor.Config{
		ProEnabled: cfg.Pro,
		GridSize:   cfg.GridSize,
		Logger:     logger,
	})
	if errors.Is(err, editor.ErrLocked) {
		logger.Warn("canvas editor locked", "user", cfg.UserID)
		return m
	}
	m.editor = ed
	return m
}

// Locked reports whether the editor is unavailable.
func (m Model) Locked() bool { return m.editor == nil }

// Editor exposes the editing session, nil when locked.
func (m Model) Editor() *editor.Editor { return m.editor }

func (m Model) Init() tea.Cmd {
	if m.Locked() || !m.loadOnStart {
		return nil
	}
	return m.loadCmd()
}

type savedMsg struct {
	id  string
	err error
}

type loadedMsg struct {
	snap *diagram.Snapshot
	err  error
}

type exportedMsg struct {
	paths []string
	err   error
}

type copiedMsg struct {
	items int
	err   error
}

type clearToastMsg struct{ seq int }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampPointer()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.Locked() || m.overlay != overlayNone {
			return m, nil
		}
		m.handleMouse(msg)
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.logger.Error("save canvas", "err", msg.err)
			return m, m.setToast("Save failed: "+msg.err.Error(), true)
		}
		m.logger.Info("saved canvas", "id", msg.id)
		return m, m.setToast("Canvas saved", false)

	case loadedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, store.ErrNotFound) {
				return m, m.setToast("No saved canvas yet", false)
			}
			m.logger.Error("load canvas", "err", msg.err)
			return m, m.setToast("Load failed: "+msg.err.Error(), true)
		}
		if err := m.editor.Load(msg.snap); err != nil {
			m.logger.Error("restore canvas", "err", err)
			return m, m.setToast("Load failed: "+err.Error(), true)
		}
		m.grabbing = false
		m.pressed = false
		return m, m.setToast("Canvas loaded", false)

	case exportedMsg:
		if msg.err != nil {
			m.logger.Error("export canvas", "err", msg.err)
			return m, m.setToast("Export failed: "+msg.err.Error(), true)
		}
		return m, m.setToast("Exported "+joinPaths(msg.paths), false)

	case copiedMsg:
		if msg.err != nil {
			m.logger.Error("copy takeoff", "err", msg.err)
			return m, m.setToast("Copy failed: "+msg.err.Error(), true)
		}
		return m, m.setToast("Takeoff copied to clipboard", false)

	case clearToastMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
			m.toastErr = false
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) setToast(text string, isErr bool) tea.Cmd {
	m.toast = text
	m.toastErr = isErr
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return clearToastMsg{seq: seq} })
}

// canvasSize is the canvas area in cells.
func (m Model) canvasSize() (cols, rows int) {
	cols = m.width - paletteWidth - takeoffWidth
	rows = m.height - 1
	return max(cols, 1), max(rows, 1)
}

func (m Model) termOptions() render.TermOptions {
	opts := render.TermOptions{
		CellWidth:   m.cfg.Canvas.CellWidth,
		CellHeight:  m.cfg.Canvas.CellHeight,
		ShowGrid:    m.grid.Visible(),
		Pointer:     m.pointer,
		ShowPointer: m.showPointer,
	}
	if m.editor != nil {
		opts.Armed, opts.HasArmed = m.editor.Armed()
		opts.Dragging, opts.HasDrag = m.editor.Dragging()
	}
	return opts
}

// surface renders the canvas exactly as View shows it, so hit tests agree
// with what is on screen.
func (m Model) surface() *render.Surface {
	cols, rows := m.canvasSize()
	return render.Terminal(m.editor, cols, rows, m.termOptions())
}

func (m Model) timeout() (context.Context, context.CancelFunc) {
	d, err := m.cfg.StoreTimeout()
	if err != nil || d <= 0 {
		return context.WithCancel(m.ctx)
	}
	return context.WithTimeout(m.ctx, d)
}

func (m Model) saveCmd() tea.Cmd {
	if m.store == nil {
		return func() tea.Msg { return savedMsg{err: errors.New("no store configured")} }
	}
	snap := m.editor.Snapshot()
	snap.UserID = m.cfg.UserID
	st := m.store
	return func() tea.Msg {
		ctx, cancel := m.timeout()
		defer cancel()
		err := st.Save(ctx, snap)
		return savedMsg{id: snap.ID, err: err}
	}
}

func (m Model) loadCmd() tea.Cmd {
	if m.store == nil {
		return func() tea.Msg { return loadedMsg{err: errors.New("no store configured")} }
	}
	st := m.store
	user := m.cfg.UserID
	return func() tea.Msg {
		ctx, cancel := m.timeout()
		defer cancel()
		snap, err := st.Latest(ctx, user)
		return loadedMsg{snap: snap, err: err}
	}
}

// exportCmd captures a copy of the canvas so the event loop keeps editing
// while files are written.
func (m Model) exportCmd(formats ...render.Format) tea.Cmd {
	src := m.editor.Clone()
	ex := m.exporter
	ctx := m.ctx
	return func() tea.Msg {
		if len(formats) == 0 {
			paths, err := ex.ExportAll(ctx, src)
			return exportedMsg{paths: paths, err: err}
		}
		path, err := ex.Export(ctx, src, formats[0])
		if err != nil {
			return exportedMsg{err: err}
		}
		return exportedMsg{paths: []string{path}}
	}
}

func (m Model) copyCmd() tea.Cmd {
	entries := m.editor.Takeoff()
	write := m.copyText
	return func() tea.Msg {
		if len(entries) == 0 {
			return copiedMsg{err: errors.New("takeoff list is empty")}
		}
		return copiedMsg{items: len(entries), err: write(FormatTakeoff(entries))}
	}
}
