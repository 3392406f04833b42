// Package card renders the weekly koan card as a PNG.
package card

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Logical canvas size; pixels are Scale times larger.
const (
	Width  = 320
	Height = 568
	Scale  = 3
)

// DomainMark is printed under the hexagram name.
const DomainMark = "OPPAJEOM.COM"

var (
	gold      = color.NRGBA{R: 0xee, G: 0xbd, B: 0x2b, A: 0xff}
	white     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	faintText = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x99}
	rule      = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x66}
)

var trigramPalette = map[string]color.NRGBA{
	"111": hexColor("#2c3e50"),
	"000": hexColor("#1a1a1a"),
	"100": hexColor("#fdbb2d"),
	"011": hexColor("#7F7FD5"),
	"010": hexColor("#000000"),
	"101": hexColor("#ff4b1f"),
	"001": hexColor("#485563"),
	"110": hexColor("#24c6dc"),
}

// Card is the content of one koan card.
type Card struct {
	Week         int
	Koan         string
	UserName     string
	HexagramCode string
	HexagramName string
}

// Palette returns the top and bottom gradient colors: the upper trigram's
// color over the lower trigram's. Codes that are not six characters long get
// the default night-blue pair.
func Palette(code string) (top, bottom color.NRGBA) {
	if len(code) != 6 {
		return hexColor("#1e3c72"), hexColor("#2a5298")
	}
	top, ok := trigramPalette[code[3:]]
	if !ok {
		top = hexColor("#2c3e50")
	}
	bottom, ok = trigramPalette[code[:3]]
	if !ok {
		bottom = hexColor("#4ca1af")
	}
	return top, bottom
}

// Renderer draws cards with a fixed set of faces.
type Renderer struct {
	header font.Face
	koan   font.Face
	name   font.Face
	mark   font.Face
}

// NewRenderer builds a renderer from TrueType or OpenType data. Nil data
// uses the bundled Go fonts, which cover Latin text only.
func NewRenderer(regular, bold []byte) (*Renderer, error) {
	if regular == nil {
		regular = goregular.TTF
	}
	if bold == nil {
		bold = gobold.TTF
	}
	regularFont, err := opentype.Parse(regular)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	boldFont, err := opentype.Parse(bold)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}

	face := func(f *opentype.Font, size float64) (font.Face, error) {
		return opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size * Scale,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}
	r := &Renderer{}
	if r.header, err = face(boldFont, 12); err != nil {
		return nil, fmt.Errorf("header face: %w", err)
	}
	if r.koan, err = face(boldFont, 26); err != nil {
		return nil, fmt.Errorf("koan face: %w", err)
	}
	if r.name, err = face(boldFont, 20); err != nil {
		return nil, fmt.Errorf("name face: %w", err)
	}
	if r.mark, err = face(regularFont, 10); err != nil {
		return nil, fmt.Errorf("mark face: %w", err)
	}
	return r, nil
}

// Render draws c and encodes it as PNG.
func (r *Renderer) Render(c Card) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, Width*Scale, Height*Scale))

	top, bottom := Palette(c.HexagramCode)
	fillGradient(img, top, bottom)

	strokeRect(img, 12, 12, Width-24, Height-24, 1.5, withAlpha(gold, 0x66))
	strokeRect(img, 16, 16, Width-32, Height-32, 1, withAlpha(gold, 0x33))

	header := "WEEK 0" + strconv.Itoa(c.Week)
	r.drawText(img, r.header, header, 32, 34+12, gold, false)
	fillRect(img, 32, 50, 50, 1, withAlpha(gold, 0x4d))

	fillRect(img, Width/2, 80, 1, 50, withAlpha(gold, 0x80))
	r.drawKoan(img, c.Koan)
	fillRect(img, Width/2, Height-130, 1, 50, withAlpha(gold, 0x80))

	footerY := float64(Height - 40)
	fillRect(img, Width/2-60, footerY-5, 32, 1, rule)
	fillRect(img, Width/2+28, footerY-5, 32, 1, rule)
	r.drawText(img, r.name, c.HexagramName, Width/2, footerY+2, gold, true)
	r.drawText(img, r.mark, DomainMark, Width/2, footerY+18, faintText, true)
	if name := strings.TrimSpace(c.UserName); name != "" {
		r.drawText(img, r.mark, name, Width-32, 34+10, faintText, false)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}

// maxKoanLines keeps the koan between the two gold rules.
const maxKoanLines = 6

// drawKoan wraps the koan rune by rune and centers the block vertically.
// Texts longer than maxKoanLines are cut with an ellipsis.
func (r *Renderer) drawKoan(img draw.Image, koan string) {
	const lineHeight = 40.0
	maxWidth := fixed.I((Width - 80) * Scale)
	lines := clampLines(r.koan, wrap(r.koan, koan, maxWidth), maxKoanLines, maxWidth)

	y := float64(Height)/2 - float64(len(lines)-1)*lineHeight/2
	for _, line := range lines {
		r.drawText(img, r.koan, line, Width/2, y+9, white, true)
		y += lineHeight
	}
}

// wrap breaks text into lines no wider than maxWidth. Explicit newlines
// start new lines.
func wrap(face font.Face, text string, maxWidth fixed.Int26_6) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		line := ""
		for _, ch := range paragraph {
			candidate := line + string(ch)
			if line != "" && font.MeasureString(face, candidate) > maxWidth {
				lines = append(lines, line)
				line = strings.TrimLeft(string(ch), " ")
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}

// clampLines keeps at most limit lines, ending the last kept line with an
// ellipsis that still fits maxWidth.
func clampLines(face font.Face, lines []string, limit int, maxWidth fixed.Int26_6) []string {
	if len(lines) <= limit {
		return lines
	}
	lines = lines[:limit]
	last := []rune(strings.TrimRight(lines[limit-1], " "))
	for len(last) > 0 && font.MeasureString(face, string(last)+ellipsis) > maxWidth {
		last = last[:len(last)-1]
	}
	lines[limit-1] = string(last) + ellipsis
	return lines
}

const ellipsis = "…"

// drawText draws s with its baseline at logical y; centered texts are
// centered on logical x.
func (r *Renderer) drawText(img draw.Image, face font.Face, s string, x, y float64, c color.Color, centered bool) {
	px := fixed.Int26_6(x * Scale * 64)
	if centered {
		px -= font.MeasureString(face, s) / 2
	}
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: px, Y: fixed.Int26_6(y * Scale * 64)},
	}
	d.DrawString(s)
}

func fillGradient(img *image.NRGBA, top, bottom color.NRGBA) {
	bounds := img.Bounds()
	h := bounds.Dy()
	for y := 0; y < h; y++ {
		t := float64(y) / float64(h-1)
		c := color.NRGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 0xff,
		}
		draw.Draw(img, image.Rect(bounds.Min.X, y, bounds.Max.X, y+1), image.NewUniform(c), image.Point{}, draw.Src)
	}
}

// fillRect blends a logical-coordinate rectangle over img.
func fillRect(img draw.Image, x, y, w, h float64, c color.Color) {
	rect := image.Rect(
		int(x*Scale), int(y*Scale),
		int((x+w)*Scale+0.5), int((y+h)*Scale+0.5),
	)
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

func strokeRect(img draw.Image, x, y, w, h, width float64, c color.Color) {
	fillRect(img, x, y, w, width, c)
	fillRect(img, x, y+h-width, w, width, c)
	fillRect(img, x, y+width, width, h-2*width, c)
	fillRect(img, x+w-width, y+width, width, h-2*width, c)
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

func withAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}

// hexColor parses #rrggbb. Malformed input yields black.
func hexColor(s string) color.NRGBA {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
