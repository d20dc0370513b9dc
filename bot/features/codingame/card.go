package codingame

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	cg "cgbot/codingame"

	"github.com/bwmarrin/discordgo"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	cardWidth    = 600
	cardHeight   = 200
	cardFileName = "codingamer.png"
)

// CardStyle defines the colours of a profile card
type CardStyle struct {
	Background [3]float64
	Accent     [3]float64 // CodinGame yellow
	Text       [3]float64
	Muted      [3]float64
}

// CardGenerator renders CodinGamer profile cards
type CardGenerator struct {
	style CardStyle
}

func NewCardGenerator() *CardGenerator {
	return &CardGenerator{
		style: CardStyle{
			Background: [3]float64{0.09, 0.10, 0.13},
			Accent:     [3]float64{0.99, 0.82, 0.03},
			Text:       [3]float64{1, 1, 1},
			Muted:      [3]float64{0.65, 0.67, 0.72},
		},
	}
}

// Render draws the card and wraps it as a Discord attachment
func (g *CardGenerator) Render(codinGamer *cg.CodinGamer) (*discordgo.File, error) {
	data, err := g.RenderPNG(codinGamer)
	if err != nil {
		return nil, err
	}
	return &discordgo.File{
		Name:        cardFileName,
		ContentType: "image/png",
		Reader:      bytes.NewReader(data),
	}, nil
}

// RenderPNG draws a 600x200 card with the profile's name, level, rank and country
func (g *CardGenerator) RenderPNG(codinGamer *cg.CodinGamer) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("handle", codinGamer.PublicHandle).
			Debug("Profile card generation completed")
	}()

	dc := gg.NewContext(cardWidth, cardHeight)

	// Vertical gradient background
	for y := 0; y < cardHeight; y++ {
		t := float64(y) / float64(cardHeight)
		bg := g.style.Background
		dc.SetRGB(bg[0]+t*0.03, bg[1]+t*0.03, bg[2]+t*0.05)
		dc.DrawLine(0, float64(y), cardWidth, float64(y))
		dc.Stroke()
	}

	// Accent bar
	accent := g.style.Accent
	dc.SetRGB(accent[0], accent[1], accent[2])
	dc.DrawRectangle(0, 0, 8, cardHeight)
	dc.Fill()

	// Level badge
	dc.DrawCircle(90, 100, 55)
	dc.Fill()
	dc.SetRGB(g.style.Background[0], g.style.Background[1], g.style.Background[2])
	dc.DrawCircle(90, 100, 49)
	dc.Fill()

	levelFace, err := loadFont(gobold.TTF, 36)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetFontFace(levelFace)
	dc.SetRGB(accent[0], accent[1], accent[2])
	dc.DrawStringAnchored(fmt.Sprintf("%d", codinGamer.Level), 90, 96, 0.5, 0.5)

	smallFace, err := loadFont(goregular.TTF, 12)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetFontFace(smallFace)
	dc.SetRGB(g.style.Muted[0], g.style.Muted[1], g.style.Muted[2])
	dc.DrawStringAnchored("LEVEL", 90, 128, 0.5, 0.5)

	// Name and handle
	nameFace, err := loadFont(gobold.TTF, 28)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetFontFace(nameFace)
	dc.SetRGB(g.style.Text[0], g.style.Text[1], g.style.Text[2])
	dc.DrawString(ellipsize(dc, codinGamer.DisplayName(), cardWidth-200), 175, 62)

	monoFace, err := loadFont(gomono.TTF, 11)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetFontFace(monoFace)
	dc.SetRGB(g.style.Muted[0], g.style.Muted[1], g.style.Muted[2])
	dc.DrawString(codinGamer.PublicHandle, 175, 84)

	// Divider
	dc.SetRGBA(accent[0], accent[1], accent[2], 0.6)
	dc.SetLineWidth(1)
	dc.DrawLine(175, 100, cardWidth-25, 100)
	dc.Stroke()

	// Stats
	statFace, err := loadFont(goregular.TTF, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	stats := []struct{ label, value string }{
		{"Rank", fmt.Sprintf("#%d", codinGamer.Rank)},
		{"Country", orNone(codinGamer.CountryID)},
		{"Category", orNone(codinGamer.CategoryTitle())},
	}
	for i, stat := range stats {
		x := 175 + float64(i)*140
		dc.SetFontFace(smallFace)
		dc.SetRGB(g.style.Muted[0], g.style.Muted[1], g.style.Muted[2])
		dc.DrawString(strings.ToUpper(stat.label), x, 128)

		dc.SetFontFace(statFace)
		dc.SetRGB(g.style.Text[0], g.style.Text[1], g.style.Text[2])
		dc.DrawString(stat.value, x, 152)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode card: %w", err)
	}
	return buf.Bytes(), nil
}

// ellipsize shortens text until it fits maxWidth with the current font
func ellipsize(dc *gg.Context, text string, maxWidth float64) string {
	if w, _ := dc.MeasureString(text); w <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if w, _ := dc.MeasureString(candidate); w <= maxWidth {
			return candidate
		}
	}
	return string(runes)
}

// loadFont loads a font from byte data
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	return face, nil
}
