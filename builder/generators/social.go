package generators

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/chai2010/webp"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/spf13/afero"

	"faro/builder/assets"
	"faro/builder/config"
)

// Card geometry. 1200x630 is the og:image size every major platform
// crops least.
const (
	cardW = 1200
	cardH = 630

	cardMargin     = 80.0
	headerBaseline = 90.0
	titleTop       = 180.0
	footerBaseline = float64(cardH) - 60.0

	titleSize = 80.0
	descSize  = 40.0
	brandSize = 28.0
	dateSize  = 24.0
	logoSize  = 48.0
)

const defaultCardBackground = "#faf8f5"

// Card holds the text drawn onto one social image.
type Card struct {
	SiteTitle   string
	Title       string
	Description string
	Author      string
	Date        string
	FaviconPath string // within srcFs; empty skips the logo
}

var (
	fontMu    sync.Mutex
	fontCache = map[string]*truetype.Font{}

	faviconMu    sync.Mutex
	faviconCache = map[string]image.Image{}
)

// cachedFont parses a theme font on first use and serves it from
// memory after.
func cachedFont(name string) (*truetype.Font, error) {
	fontMu.Lock()
	defer fontMu.Unlock()

	if fnt, ok := fontCache[name]; ok {
		return fnt, nil
	}
	data, err := assets.Font(name)
	if err != nil {
		return nil, fmt.Errorf("load font %s: %w", name, err)
	}
	fnt, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", name, err)
	}
	fontCache[name] = fnt
	return fnt, nil
}

// getFavicon decodes the site logo once; a failed decode is cached as
// nil so each build logs at most one miss.
func getFavicon(fs afero.Fs, path string) image.Image {
	faviconMu.Lock()
	defer faviconMu.Unlock()

	if img, ok := faviconCache[path]; ok {
		return img
	}

	var img image.Image
	if f, err := fs.Open(path); err == nil {
		img, _, _ = image.Decode(f)
		_ = f.Close()
	}
	faviconCache[path] = img
	return img
}

func setFontFace(dc *gg.Context, fontFile string, points float64) error {
	fnt, err := cachedFont(fontFile)
	if err != nil {
		return err
	}
	dc.SetFontFace(truetype.NewFace(fnt, &truetype.Options{Size: points, DPI: 72}))
	return nil
}

// parseHex converts "#rrggbb" or "#rgb" to an opaque color. Malformed
// values come back black so a broken theme setting still renders.
func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// lerp blends two colors at t in [0,1].
func lerp(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: 255,
	}
}

// drawGradient fills the canvas with a multi-stop linear gradient
// painted as one-pixel strips along the dominant axis of angle.
func drawGradient(dc *gg.Context, w, h int, stops []string, angle int) {
	if len(stops) < 2 {
		bg := defaultCardBackground
		if len(stops) == 1 {
			bg = stops[0]
		}
		dc.SetColor(parseHex(bg))
		dc.Clear()
		return
	}

	colors := make([]color.RGBA, len(stops))
	for i, s := range stops {
		colors[i] = parseHex(s)
	}

	angle = ((angle % 360) + 360) % 360
	horizontal := (angle >= 45 && angle < 135) || (angle >= 225 && angle < 315)

	steps := w
	if horizontal {
		steps = h
	}

	for i := range steps {
		pos := float64(i) / float64(steps-1) * float64(len(colors)-1)
		seg := min(int(pos), len(colors)-2)

		dc.SetColor(lerp(colors[seg], colors[seg+1], pos-float64(seg)))
		if horizontal {
			dc.DrawRectangle(0, float64(i), float64(w), 1)
		} else {
			dc.DrawRectangle(float64(i), 0, 1, float64(h))
		}
		dc.Fill()
	}
}

// drawDots lays a faint dot grid over the gradient. All circles
// join one path and fill in a single pass.
func drawDots(dc *gg.Context, w, h int) {
	const step, radius = 32, 2.0

	dc.SetRGBA255(120, 100, 80, 70)
	for x := step / 2; x < w; x += step {
		for y := step / 2; y < h; y += step {
			dc.DrawCircle(float64(x), float64(y), radius)
		}
	}
	dc.Fill()
}

// cardFonts resolves the three weights, falling back to a single
// configured font file for themes that ship only one.
func cardFonts(cfg *config.SocialCardsConfig) (bold, medium, regular string) {
	if cfg.Font != "" {
		return cfg.Font, cfg.Font, cfg.Font
	}
	return "Inter-Bold.ttf", "Inter-Medium.ttf", "Inter-Regular.ttf"
}

// CanDraw reports whether card rendering has the fonts it needs. Callers
// disable cards with a single warning instead of failing once per post
// when the theme ships no usable font.
func CanDraw(cfg *config.SocialCardsConfig) error {
	bold, _, _ := cardFonts(cfg)
	_, err := cachedFont(bold)
	return err
}

// encodeCard draws the card and writes it to w as lossy webp.
func encodeCard(w io.Writer, srcFs afero.Fs, cfg *config.SocialCardsConfig, card Card) error {
	img, err := drawCard(srcFs, cfg, card)
	if err != nil {
		return err
	}
	return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: 85})
}

// GenerateSocialCardToDisk renders a card straight to a path on disk,
// used when populating the social card cache.
func GenerateSocialCardToDisk(srcFs afero.Fs, cfg *config.SocialCardsConfig, card Card, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return encodeCard(f, srcFs, cfg, card)
}

// GenerateSocialCard renders a post's og:image into the destination
// filesystem.
func GenerateSocialCard(destFs afero.Fs, srcFs afero.Fs, cfg *config.SocialCardsConfig, card Card, destPath string) error {
	f, err := destFs.Create(destPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return encodeCard(f, srcFs, cfg, card)
}

func drawCard(srcFs afero.Fs, cfg *config.SocialCardsConfig, card Card) (image.Image, error) {
	dc := gg.NewContext(cardW, cardH)

	stops := append([]string{cfg.Background}, cfg.Gradient...)
	drawGradient(dc, cardW, cardH, stops, cfg.Angle)
	drawDots(dc, cardW, cardH)

	boldFont, mediumFont, regFont := cardFonts(cfg)
	maxWidth := float64(cardW) - cardMargin*2

	primary := parseHex(cfg.TextColor)
	secondary := primary
	secondary.A = uint8(float64(primary.A) * 0.75)

	// Header: logo + site title, top left.
	x := cardMargin
	if card.FaviconPath != "" {
		if logo := getFavicon(srcFs, card.FaviconPath); logo != nil {
			scale := logoSize / float64(logo.Bounds().Dx())

			dc.Push()
			dc.Scale(scale, scale)
			dc.DrawImage(logo, int(x/scale), int((headerBaseline-35)/scale))
			dc.Pop()

			x += logoSize + 20
		}
	}
	if err := setFontFace(dc, boldFont, brandSize); err == nil {
		dc.SetColor(primary)
		dc.DrawString(card.SiteTitle, x, headerBaseline)
	}

	// Header: date, top right.
	if err := setFontFace(dc, mediumFont, dateSize); err == nil {
		dc.SetColor(primary)
		w, _ := dc.MeasureString(card.Date)
		dc.DrawString(card.Date, float64(cardW)-cardMargin-w, headerBaseline)
	}

	// The wrapped title. The bold face is the one font a card cannot
	// render without.
	const titleSpacing = 1.1
	if err := setFontFace(dc, boldFont, titleSize); err != nil {
		return nil, err
	}
	dc.SetColor(primary)
	dc.DrawStringWrapped(card.Title, cardMargin, titleTop, 0, 0, maxWidth, titleSpacing, gg.AlignLeft)
	titleHeight := float64(len(dc.WordWrap(card.Title, maxWidth))) * titleSize * titleSpacing

	// Description below the title.
	if err := setFontFace(dc, regFont, descSize); err == nil {
		dc.SetColor(secondary)
		dc.DrawStringWrapped(card.Description, cardMargin, titleTop+titleHeight+25, 0, 0, maxWidth, 1.4, gg.AlignLeft)
	}

	// Author byline, bottom left.
	if card.Author != "" {
		if err := setFontFace(dc, mediumFont, brandSize); err == nil {
			dc.SetColor(secondary)
			dc.DrawString(card.Author, cardMargin, footerBaseline)
		}
	}

	return dc.Image(), nil
}
