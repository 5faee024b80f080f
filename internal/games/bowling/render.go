package bowling

import (
	"fmt"
	"math"
	"strings"

	engine "github.com/vovakirdan/tui-bowling/internal/bowling"
	"github.com/vovakirdan/tui-bowling/internal/bowling/lane"
	"github.com/vovakirdan/tui-bowling/internal/config"
	"github.com/vovakirdan/tui-bowling/internal/core"
)

// Visual characters for rendering
const (
	BallChar      = '●'
	PinChar       = '▲'
	WobbleChar    = '△'
	FallenPinChar = '•'
	BoardChar     = '·'
	GutterChar    = '║'
	FoulLineChar  = '─'
	AimChar       = '∙'
)

// Layout
const (
	minScreenW = 72
	minScreenH = 20

	cardHeight    = 5
	frameCellW    = 5
	lastFrameW    = 7
	laneCols      = 13
	deckX         = 20
	deckRows      = 8
	deckInchesRow = 6.0
	deckInchesCol = 2.0
)

// Render draws the lane, the deck close-up, the HUD and the scorecard.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()

	if g.tooSmall {
		dst.DrawTextCentered(dst.Height()/2, fmt.Sprintf("Need %dx%d", minScreenW, minScreenH))
		return
	}

	view := g.Snapshot()
	RenderView(dst, view, g.cfg.Lane)

	if g.paused {
		drawCenteredMessage(dst, "PAUSED", "Press P to resume")
	}
	if view.Game.GameOver() {
		drawCenteredMessage(dst, "GAME OVER", fmt.Sprintf("Score: %d  |  Press R to restart", view.Game.Score))
	}
}

// RenderView draws a game view. Spectators use it with views received
// over the network.
func RenderView(dst *core.Screen, v View, lc config.LaneConfig) {
	width, gutter := lc.Width, lc.GutterWidth
	deckEnd := lc.Length + lc.PitDepth

	drawScorecard(dst, v.Game)

	top := cardHeight
	panelH := dst.Height() - top - 1
	drawOverview(dst, v.Lane, top, panelH, width, deckEnd)
	drawDeck(dst, v.Lane, top, width, gutter, deckEnd)
	drawHUD(dst, v, top, deckX+deckCols(width, gutter)+3)

	dst.DrawTextColor(1, dst.Height()-1, "←/→ aim  Space charge/throw  P pause  R restart  Q quit", core.ColorGray)
}

// drawScorecard draws the ten-frame scorecard across the top.
func drawScorecard(dst *core.Screen, s engine.Snapshot) {
	n := len(s.Frames)
	w := (n-1)*frameCellW + lastFrameW + 8
	dst.DrawBox(core.NewRect(0, 0, w, cardHeight))

	x := 1
	running := 0
	for i, f := range s.Frames {
		cw := frameCellW
		if i == n-1 {
			cw = lastFrameW
		}

		color := core.ColorGray
		if f.Number == s.Frame && !s.GameOver() {
			color = core.ColorBrightYellow
		}
		dst.DrawTextColor(x+1, 1, fmt.Sprintf("%d", f.Number), color)
		dst.DrawTextColor(x+1, 2, strings.Join(f.Marks, " "), markColor(f.Mark))
		if len(f.Rolls) > 0 {
			running += f.Score
			dst.DrawText(x+1, 3, fmt.Sprintf("%d", running))
		}
		dst.DrawVLine(x+cw-1, 1, 3, '│', core.ColorGray)
		x += cw
	}

	dst.DrawTextColor(x+1, 1, "TOT", core.ColorGray)
	dst.DrawTextColor(x+1, 3, fmt.Sprintf("%d", s.Score), core.ColorBrightWhite)
}

func markColor(m engine.Mark) core.Color {
	switch m {
	case engine.MarkStrike:
		return core.ColorBrightRed
	case engine.MarkSpare:
		return core.ColorCyan
	default:
		return core.ColorWhite
	}
}

// drawOverview draws the whole lane compressed into one narrow column.
func drawOverview(dst *core.Screen, ls lane.Snapshot, top, rows int, width, deckEnd float64) {
	if rows < 3 {
		return
	}
	left, right := 1, laneCols+2

	rowOf := func(y float64) int {
		frac := core.ClampF(y/deckEnd, 0, 1)
		return top + int(math.Round((1-frac)*float64(rows-1)))
	}
	colOf := func(x float64) int {
		frac := core.ClampF((x+width/2)/width, 0, 1)
		return left + 1 + int(math.Round(frac*float64(laneCols-1)))
	}

	dst.DrawVLine(left, top, rows, GutterChar, core.ColorGray)
	dst.DrawVLine(right, top, rows, GutterChar, core.ColorGray)
	for y := top; y < top+rows; y++ {
		for x := left + 1; x < right; x++ {
			dst.SetColor(x, y, BoardChar, core.ColorWood)
		}
	}
	foul := rowOf(0)
	for x := left + 1; x < right; x++ {
		dst.SetColor(x, foul, FoulLineChar, core.ColorRed)
	}

	for _, p := range ls.Pins {
		if p.Removed || p.Knocked {
			continue
		}
		dst.SetColor(colOf(p.X), rowOf(p.Y), PinChar, core.ColorBrightWhite)
	}

	if ls.Ball.Held {
		rad := ls.Aim * math.Pi / 180
		step := deckEnd / float64(rows-1)
		for k := 1; k <= 4; k++ {
			y := float64(k) * step
			dst.SetColor(colOf(y*math.Tan(rad)), rowOf(y), AimChar, core.ColorYellow)
		}
	}

	if ls.Ball.Live && ls.Ball.Z >= 0 {
		x := colOf(ls.Ball.X)
		if ls.Ball.InGutter {
			x = left
			if ls.Ball.X > 0 {
				x = right
			}
		}
		dst.SetColor(x, rowOf(ls.Ball.Y), BallChar, core.ColorBrightWhite)
	}
}

func deckCols(width, gutter float64) int {
	return int(math.Ceil((width+2*gutter)/deckInchesCol)) + 1
}

// drawDeck draws a close-up of the pin deck.
func drawDeck(dst *core.Screen, ls lane.Snapshot, top int, width, gutter, deckEnd float64) {
	cols := deckCols(width, gutter)
	box := core.NewRect(deckX, top, cols+2, deckRows+2)
	dst.DrawBox(box)
	dst.DrawText(deckX+2, top, " Deck ")

	span := width/2 + gutter
	inside := func(x, y float64) (int, int, bool) {
		col := int(math.Round((x + span) / deckInchesCol))
		row := int(math.Round((deckEnd - y) / deckInchesRow))
		if col < 0 || col >= cols || row < 0 || row >= deckRows {
			return 0, 0, false
		}
		return deckX + 1 + col, top + 1 + row, true
	}

	for r := 0; r < deckRows; r++ {
		y := top + 1 + r
		for c := 0; c < cols; c++ {
			x := -span + float64(c)*deckInchesCol
			ch, color := BoardChar, core.ColorWood
			if math.Abs(x) > width/2 {
				ch, color = ' ', core.ColorGray
			}
			dst.SetColor(deckX+1+c, y, ch, color)
		}
	}

	for _, p := range ls.Pins {
		if p.Removed {
			continue
		}
		x, y, ok := inside(p.X, p.Y)
		if !ok {
			continue
		}
		switch {
		case p.Knocked:
			dst.SetColor(x, y, FallenPinChar, core.ColorGray)
		case p.Tilt > 0:
			dst.SetColor(x, y, WobbleChar, core.ColorYellow)
		default:
			dst.SetColor(x, y, PinChar, core.ColorBrightWhite)
		}
	}

	if ls.Ball.Live && ls.Ball.Z >= 0 {
		if x, y, ok := inside(ls.Ball.X, ls.Ball.Y); ok {
			dst.SetColor(x, y, BallChar, core.ColorBlue)
		}
	}
}

// drawHUD draws frame, score, aim and power to the right of the deck.
func drawHUD(dst *core.Screen, v View, top, x int) {
	s := v.Game
	lines := []struct {
		text  string
		color core.Color
	}{
		{fmt.Sprintf("Frame %d/%d  Roll %d", s.Frame, s.TotalFrames, s.Roll), core.ColorWhite},
		{fmt.Sprintf("Score %d", s.Score), core.ColorBrightWhite},
		{fmt.Sprintf("Pins  %d", s.PinsRemaining), core.ColorWhite},
		{fmt.Sprintf("State %s", s.State.Label()), core.ColorCyan},
		{fmt.Sprintf("Aim   %+.2f°", v.Lane.Aim), core.ColorYellow},
		{"Power " + powerBar(v.Lane.Charge, 10), core.ColorOrange},
		{streakText(s), core.ColorMagenta},
		{fmt.Sprintf("Gutters %d", s.GutterBalls), core.ColorGray},
	}
	for i, l := range lines {
		dst.DrawTextColor(x, top+i, l.text, l.color)
	}
	if v.Flash != "" {
		dst.DrawTextColor(x, top+len(lines)+1, v.Flash, core.ColorBrightRed)
	}
}

func powerBar(charge float64, width int) string {
	filled := int(math.Round(core.ClampF(charge, 0, 1) * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func streakText(s engine.Snapshot) string {
	switch {
	case s.StrikeStreak > 1:
		return fmt.Sprintf("Strikes x%d", s.StrikeStreak)
	case s.SpareStreak > 1:
		return fmt.Sprintf("Spares x%d", s.SpareStreak)
	default:
		return ""
	}
}

// drawCenteredMessage draws a message box in the center of the screen.
func drawCenteredMessage(dst *core.Screen, title, subtitle string) {
	w := dst.Width()
	h := dst.Height()

	boxW := max(len([]rune(title)), len([]rune(subtitle))) + 4
	boxH := 5
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	dst.DrawRect(core.NewRect(boxX, boxY, boxW, boxH), ' ')
	dst.DrawBox(core.NewRect(boxX, boxY, boxW, boxH))
	dst.DrawTextColor(boxX+(boxW-len([]rune(title)))/2, boxY+1, title, core.ColorBrightYellow)
	dst.DrawText(boxX+(boxW-len([]rune(subtitle)))/2, boxY+3, subtitle)
}
