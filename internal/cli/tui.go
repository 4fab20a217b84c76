package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/binvis/pkg/brightness"
	"github.com/matzehuels/binvis/pkg/ngram"
	"github.com/matzehuels/binvis/pkg/render"
	"github.com/matzehuels/binvis/pkg/session"
)

// Explorer styles
var (
	exploreGridStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	exploreFrameStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	exploreDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	exploreErrStyle   = lipgloss.NewStyle().Foreground(colorRed)
)

// ramp maps brightness to characters, darkest first.
const ramp = " .:-=+*#%@"

// bars draws the level histogram, lowest first.
var bars = []rune("▁▂▃▄▅▆▇█")

const (
	smallStep = 1
	largeStep = 16

	minGridWidth = 16
	maxGridWidth = ngram.Side
)

// =============================================================================
// ExploreModel - Interactive threshold explorer
// =============================================================================

// ExploreModel is the bubbletea model for the threshold explorer.
// Every key press that changes the threshold or transform re-extracts the
// point set from the session; the input is never scanned again.
type ExploreModel struct {
	Session *session.Session
	Name    string
	Axis    render.Axis

	// Grid size in characters. Cells are roughly twice as tall as wide, so
	// Height is kept at Width/2.
	Width  int
	Height int

	err error
}

// NewExploreModel creates an explorer over sess. name labels the input.
func NewExploreModel(sess *session.Session, name string) ExploreModel {
	return ExploreModel{
		Session: sess,
		Name:    name,
		Axis:    render.AxisZ,
		Width:   64,
		Height:  32,
	}
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k", "+":
			m.Session.Raise(smallStep)
		case "down", "j", "-":
			m.Session.Lower(smallStep)
		case "pgup":
			m.Session.Raise(largeStep)
		case "pgdown":
			m.Session.Lower(largeStep)
		case "home":
			m.Session.SetThreshold(0)
		case "end":
			m.Session.SetThreshold(255)
		case "t":
			m.err = m.Session.SetTransform(brightness.Next(m.Session.Transform()))
		case "a":
			if m.Session.Histogram().Dims() == ngram.Dims3 {
				m.Axis = m.Axis.Next()
			}
		}
	case tea.WindowSizeMsg:
		m.Width, m.Height = gridSize(msg.Width-2, msg.Height-10)
	}
	return m, nil
}

func (m ExploreModel) View() string {
	snap := m.Session.Snapshot()
	is3D := m.Session.Histogram().Dims() == ngram.Dims3

	var b strings.Builder

	b.WriteString(StyleTitle.Render("binvis") + " " + StyleDim.Render(m.Name))
	b.WriteString("\n")
	help := "↑/↓ ±1  pgup/pgdn ±16  t transform  q quit"
	if is3D {
		help = "↑/↓ ±1  pgup/pgdn ±16  t transform  a axis  q quit"
	}
	b.WriteString(exploreDimStyle.Render(help))
	b.WriteString("\n")

	plane := render.Flatten(snap.Points, m.Axis)
	b.WriteString(exploreFrameStyle.Render(exploreGridStyle.Render(downsample(plane, m.Width, m.Height))))
	b.WriteString("\n")

	// cells per brightness level; levels below the threshold are dimmed
	bar := []rune(levelBar(m.Session.Levels(), m.Width))
	cut := int(snap.Threshold) * len(bar) / 256
	b.WriteString(" " + exploreDimStyle.Render(string(bar[:cut])) + exploreGridStyle.Render(string(bar[cut:])))
	b.WriteString("\n")
	b.WriteString(exploreDimStyle.Render(fmt.Sprintf(" next: -%d %d · -%d %d · +%d %d · +%d %d",
		largeStep, m.Session.Preview(-largeStep), smallStep, m.Session.Preview(-smallStep),
		smallStep, m.Session.Preview(smallStep), largeStep, m.Session.Preview(largeStep))))
	b.WriteString("\n")

	status := []string{
		fmt.Sprintf("threshold %s", StyleNumber.Render(fmt.Sprintf("%d", snap.Threshold))),
		fmt.Sprintf("transform %s", StyleHighlight.Render(snap.Transform)),
		fmt.Sprintf("%s points", StyleNumber.Render(fmt.Sprintf("%d", len(snap.Points)))),
	}
	if is3D {
		status = append(status, fmt.Sprintf("axis %s", StyleHighlight.Render(m.Axis.String())))
	}
	status = append(status, exploreDimStyle.Render(snap.Elapsed.Round(time.Microsecond).String()))
	b.WriteString(strings.Join(status, StyleDim.Render(" · ")))

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(exploreErrStyle.Render(m.err.Error()))
	}
	return b.String()
}

// gridSize fits a grid into a w×h character area keeping a 2:1 aspect.
func gridSize(w, h int) (int, int) {
	w = min(w, maxGridWidth)
	if h < w/2 {
		w = 2 * h
	}
	w = max(w, minGridWidth)
	return w, w / 2
}

// downsample reduces a 256×256 brightness plane to w×h characters, each
// showing the brightest cell of its block.
func downsample(plane []uint8, w, h int) string {
	var b strings.Builder
	b.Grow((w + 1) * h)
	for row := 0; row < h; row++ {
		v0, v1 := row*ngram.Side/h, (row+1)*ngram.Side/h
		for col := 0; col < w; col++ {
			u0, u1 := col*ngram.Side/w, (col+1)*ngram.Side/w
			var peak uint8
			for v := v0; v < v1; v++ {
				for _, x := range plane[v*ngram.Side+u0 : v*ngram.Side+u1] {
					peak = max(peak, x)
				}
			}
			b.WriteByte(rampChar(peak))
		}
		if row < h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// levelBar draws counts per brightness level as w bar characters, each
// covering 256/w levels. Heights are logarithmic so sparse levels stay
// visible next to the dense ones.
func levelBar(levels [256]int, w int) string {
	w = max(1, min(w, len(levels)))
	sums := make([]int, w)
	peak := 0
	for col := range sums {
		for _, n := range levels[col*len(levels)/w : (col+1)*len(levels)/w] {
			sums[col] += n
		}
		peak = max(peak, sums[col])
	}

	out := make([]rune, w)
	for col, n := range sums {
		if n == 0 {
			out[col] = ' '
			continue
		}
		i := int(float64(len(bars)-1) * math.Log1p(float64(n)) / math.Log1p(float64(peak)))
		out[col] = bars[i]
	}
	return string(out)
}

// rampChar maps brightness to a character. Any lit cell is visible.
func rampChar(v uint8) byte {
	if v == 0 {
		return ramp[0]
	}
	i := 1 + int(v)*(len(ramp)-2)/255
	return ramp[i]
}
