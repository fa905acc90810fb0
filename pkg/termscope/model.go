// Package termscope is a terminal front end for plot frames: a braille
// canvas surface and a bubbletea model that redraws it at a fixed rate.
package termscope

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tui "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"

	"github.com/itohio/gotsplot/pkg/plot"
)

// ZoomStep is the X zoom factor of one key press.
const ZoomStep = 1.5

// PanStep is the fraction of the view width one pan key press moves.
const PanStep = 0.1

const (
	defaultWidth  = 80
	defaultHeight = 20
)

var (
	selectedColor = styles.AdaptiveColor{Light: "0", Dark: "9"}
	borderColor   = styles.AdaptiveColor{Light: "#555", Dark: "#555"}
	selectedFg    = styles.NewStyle().Foreground(selectedColor)
	borderFg      = styles.NewStyle().Foreground(borderColor)
	titleStyle    = styles.NewStyle().Bold(true)
	plotStyle     = styles.NewStyle().
			BorderStyle(styles.NormalBorder()).
			Foreground(borderColor).
			BorderForeground(borderColor)
)

// Options configures a Model.
type Options struct {
	Title     string
	FrameRate int
	// Frame builds and shows one plot frame on the surface.
	Frame func(s plot.Surface)
	// Readout returns the status text of a line, keyed by line ID.
	Readout func(id string) string
	// Clear drops the recorded data and the caches.
	Clear func()
}

// Model is a bubbletea model showing one plot.
type Model struct {
	opts    Options
	surface *Surface
	help    help.Model

	width, height int
	selected      int
	paused        bool
}

// New creates a model with a default-sized surface.
func New(opts Options) *Model {
	if opts.FrameRate < 1 {
		opts.FrameRate = 30
	}
	return &Model{
		opts:    opts,
		surface: NewSurface(defaultWidth-2, defaultHeight),
		help:    help.New(),
		width:   defaultWidth,
		height:  defaultHeight,
	}
}

// Surface returns the model's rendering surface.
func (m *Model) Surface() *Surface {
	return m.surface
}

// FrameTickMsg triggers a redraw.
type FrameTickMsg time.Time

func (m *Model) doFrameTick() tui.Cmd {
	return tui.Every(time.Second/time.Duration(m.opts.FrameRate), func(t time.Time) tui.Msg {
		return FrameTickMsg(t)
	})
}

// Init implements tui.Model.
func (m *Model) Init() tui.Cmd {
	return m.doFrameTick()
}

// Update implements tui.Model.
func (m *Model) Update(msg tui.Msg) (tui.Model, tui.Cmd) {
	switch msg := msg.(type) {
	case FrameTickMsg:
		m.showFrame()
		return m, m.doFrameTick()
	case tui.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		// title, border (2), axis labels, legend and help
		available := m.height - 6
		m.surface.Resize(max(1, m.width-2), max(1, available))
		return m, nil
	case tui.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tui.Quit
		case key.Matches(msg, keys.ZoomIn):
			m.surface.Zoom(ZoomStep, 1)
		case key.Matches(msg, keys.ZoomOut):
			m.surface.Zoom(1/ZoomStep, 1)
		case key.Matches(msg, keys.Left):
			m.surface.Pan(-PanStep)
		case key.Matches(msg, keys.Right):
			m.surface.Pan(PanStep)
		case key.Matches(msg, keys.Follow):
			m.surface.ResetView()
		case key.Matches(msg, keys.Next):
			m.selected++
			m.surface.Select(m.selected)
		case key.Matches(msg, keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, keys.Clear):
			if m.opts.Clear != nil {
				m.opts.Clear()
			}
			m.surface.ResetView()
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil
	}
	return m, nil
}

// showFrame draws one frame. While paused the view keeps its last frame
// and queued gestures apply on resume.
func (m *Model) showFrame() {
	if m.opts.Frame == nil || m.paused {
		return
	}
	m.opts.Frame(m.surface)
}

// View implements tui.Model.
func (m *Model) View() string {
	title := titleStyle.Render(m.opts.Title)
	if m.paused {
		title += " " + selectedFg.Render("PAUSED")
	}

	canvas := m.surface.String()
	labels := m.axisLabels()
	box := plotStyle.Render(styles.JoinVertical(styles.Left, canvas, labels))

	return styles.JoinVertical(styles.Left, title, box, m.legend(), m.help.View(keys))
}

// axisLabels spreads the X range of the last frame under the canvas.
func (m *Model) axisLabels() string {
	w := m.surface.width
	b := m.surface.FrameBounds()
	if b.MaxX <= b.MinX {
		return strings.Repeat(" ", w)
	}
	left := formatSeconds(b.MinX)
	right := formatSeconds(b.MaxX)
	mode := "FOLLOW"
	if !m.surface.AutoBoundsX() {
		mode = "MANUAL"
	}
	gap := w - len(left) - len(right) - len(mode)
	if gap < 2 {
		return borderFg.Render(mode)
	}
	return borderFg.Render(left) +
		strings.Repeat(" ", gap/2) +
		selectedFg.Render(mode) +
		strings.Repeat(" ", gap-gap/2) +
		borderFg.Render(right)
}

// legend names the highlighted line with its readout.
func (m *Model) legend() string {
	line, ok := m.surface.Selected()
	if !ok {
		return borderFg.Render("no lines")
	}
	text := line.Legend()
	if m.opts.Readout != nil {
		if r := m.opts.Readout(line.ID); r != "" {
			text += "  " + r
		}
	}
	return selectedFg.Render("● ") + text
}

func formatSeconds(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64) + "s"
}

type keyMap struct {
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Left    key.Binding
	Right   key.Binding
	Follow  key.Binding
	Next    key.Binding
	Pause   key.Binding
	Clear   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ZoomIn, k.ZoomOut, k.Follow, k.Next, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ZoomIn, k.ZoomOut, k.Left, k.Right, k.Follow},
		{k.Next, k.Pause, k.Clear},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "zoom out"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "pan left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "pan right"),
	),
	Follow: key.NewBinding(
		key.WithKeys("f", "home"),
		key.WithHelp("f", "follow"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next line"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p", " "),
		key.WithHelp("p/space", "pause"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q/ctrl+c", "quit"),
	),
}
