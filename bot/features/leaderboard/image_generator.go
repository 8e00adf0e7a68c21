package leaderboard

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"

	"matchmaker/bot/common"
	"matchmaker/domain/entities"
)

// column is one column of the rendered table
type column struct {
	Header    string
	XPosition int
	ColorRGB  [3]float64
}

// tableStyle defines the visual style of the table
type tableStyle struct {
	Width     int
	MinHeight int
	Padding   int
	RowHeight int
	Podium    [3][4]float64 // RGBA row tint for ranks 1-3
}

// ImageGenerator renders the leaderboard as a PNG
type ImageGenerator struct {
	style tableStyle
}

// NewImageGenerator creates a generator with the default style
func NewImageGenerator() *ImageGenerator {
	return &ImageGenerator{
		style: tableStyle{
			Width:     420,
			MinHeight: 120,
			Padding:   15,
			RowHeight: 26,
			Podium: [3][4]float64{
				{1, 0.84, 0, 0.1},
				{0.8, 0.8, 0.8, 0.08},
				{0.8, 0.5, 0.2, 0.06},
			},
		},
	}
}

// Generate renders the entries. The highest win rate among players with at
// least minGamesForHighlight games gets a marker.
func (g *ImageGenerator) Generate(entries []entities.LeaderboardEntry) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithFields(log.Fields{
			"duration_ms": time.Since(start).Milliseconds(),
			"row_count":   len(entries),
		}).Debug("Leaderboard image generation completed")
	}()

	p := g.style.Padding
	columns := []column{
		{Header: "#", XPosition: p, ColorRGB: [3]float64{0.85, 0.85, 0.9}},
		{Header: "Player", XPosition: p + 25, ColorRGB: [3]float64{1, 1, 1}},
		{Header: "Tier", XPosition: p + 170, ColorRGB: [3]float64{1, 0.9, 0.6}},
		{Header: "Rating", XPosition: p + 220, ColorRGB: [3]float64{0.85, 1, 0.85}},
		{Header: "W/L", XPosition: p + 290, ColorRGB: [3]float64{0.85, 0.85, 1}},
	}

	best := bestWinRate(entries)

	// header + header spacing + rows + bottom padding
	height := max(25+30+len(entries)*g.style.RowHeight+15, g.style.MinHeight)
	dc := gg.NewContext(g.style.Width, height)
	dc.SetFillRule(gg.FillRuleWinding)
	drawBackground(dc, g.style.Width, height)

	face, err := loadFont(gomono.TTF, 11)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	rankFace, err := loadFont(gobold.TTF, 9)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetFontFace(face)

	y := float64(25)
	dc.SetRGBA(0.3, 0.3, 0.4, 0.4)
	dc.DrawRectangle(0, y-15, float64(g.style.Width), 20)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	for _, col := range columns {
		drawSharpText(dc, col.Header, float64(col.XPosition), y)
	}

	dc.SetRGBA(0.6, 0.6, 0.7, 0.7)
	dc.SetLineWidth(1)
	dc.DrawLine(0, y+8, float64(g.style.Width), y+8)
	dc.Stroke()

	y += 30
	for i, entry := range entries {
		if i < len(g.style.Podium) {
			c := g.style.Podium[i]
			dc.SetRGBA(c[0], c[1], c[2], c[3])
		} else {
			dc.SetRGBA(0.5, 0.5, 0.6, 0.02)
		}
		dc.DrawRectangle(0, y-15, float64(g.style.Width), float64(g.style.RowHeight))
		dc.Fill()

		if i < len(g.style.Podium) {
			drawMedal(dc, i, entry.Rank, float64(p+3), y, rankFace)
			dc.SetFontFace(face)
		} else {
			setColor(dc, columns[0].ColorRGB)
			drawSharpText(dc, fmt.Sprintf("%d", entry.Rank), float64(columns[0].XPosition), y)
		}

		cells := rowCells(entry)
		for j, text := range cells {
			col := columns[j+1]
			setColor(dc, col.ColorRGB)
			drawSharpText(dc, text, float64(col.XPosition), y)
		}

		if best >= 0 && i == best {
			drawStarIcon(dc, float64(columns[4].XPosition+85), y-4)
		}

		y += float64(g.style.RowHeight)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

const minGamesForHighlight = 5

// bestWinRate returns the index of the entry with the highest win rate, or -1
func bestWinRate(entries []entities.LeaderboardEntry) int {
	best := -1
	var bestRate float64
	for i, e := range entries {
		if e.Player.GamesPlayed() < minGamesForHighlight {
			continue
		}
		if rate := e.Player.WinRate(); best < 0 || rate > bestRate {
			best, bestRate = i, rate
		}
	}
	return best
}

func rowCells(entry entities.LeaderboardEntry) []string {
	return []string{
		common.Truncate(entry.Player.Username, 18),
		fmt.Sprintf("%d", entry.TierInfo.Level),
		fmt.Sprintf("%d", entry.Player.Rating),
		fmt.Sprintf("%d/%d", entry.Player.Wins, entry.Player.Losses),
	}
}

func drawBackground(dc *gg.Context, width, height int) {
	for yy := 0; yy < height; yy++ {
		t := float64(yy) / float64(height)
		r, gr, b := 0.02+t*0.03, 0.02+t*0.05, 0.05+t*0.1
		for x := 0; x < width; x++ {
			noise := (float64((x*yy)%7) - 3.5) / 255.0
			dc.SetRGB(r+noise, gr+noise, b+noise)
			dc.SetPixel(x, yy)
		}
	}
}

func drawMedal(dc *gg.Context, place int, rank int, x, y float64, face font.Face) {
	medals := [3][3]float64{
		{1, 0.84, 0},
		{0.75, 0.75, 0.75},
		{0.8, 0.5, 0.2},
	}
	setColor(dc, medals[place])
	dc.DrawCircle(x, y-4, 5)
	dc.Fill()

	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(face)
	dc.DrawStringAnchored(fmt.Sprintf("%d", rank), x, y-5, 0.5, 0.4)
}

// drawStarIcon marks the best win rate on the board
func drawStarIcon(dc *gg.Context, cx, cy float64) {
	const outer, inner = 6.0, 2.6
	dc.SetRGB(1, 0.85, 0.2)
	for k := 0; k < 10; k++ {
		r := outer
		if k%2 == 1 {
			r = inner
		}
		angle := gg.Radians(float64(k)*36 - 90)
		px, py := cx+r*math.Cos(angle), cy+r*math.Sin(angle)
		if k == 0 {
			dc.MoveTo(px, py)
		} else {
			dc.LineTo(px, py)
		}
	}
	dc.ClosePath()
	dc.Fill()
}

func setColor(dc *gg.Context, rgb [3]float64) {
	dc.SetRGB(rgb[0], rgb[1], rgb[2])
}

// drawSharpText draws text over a faint offset shadow
func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()
	dc.DrawString(text, x, y)
}

func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	}), nil
}
