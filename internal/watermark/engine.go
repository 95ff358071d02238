package watermark

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/velurestudio/velure-backend/pkg/config"
	"github.com/velurestudio/velure-backend/pkg/enums"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
)

const (
	shadowOffsetPx     = 2
	textPaddingPx      = 8
	diagonalTileGapPct = 0.25
	jpegQuality        = 90
)

// Engine renders identifying overlays and composites them onto image
// buffers. Output is deterministic for identical (spec, text, base) inputs.
type Engine struct {
	face            font.Face
	cornerMarginPct float64
}

// NewEngine loads the configured font. A missing or unparsable font is not
// fatal: rendering falls back to a plain bitmap face so image protection
// degrades instead of blocking delivery.
func NewEngine(cfg config.WatermarkConfig) *Engine {
	margin := cfg.CornerMarginPct
	if margin <= 0 {
		margin = 3
	}
	engine := &Engine{cornerMarginPct: margin}
	if cfg.FontPath == "" {
		return engine
	}
	data, err := os.ReadFile(cfg.FontPath)
	if err != nil {
		return engine
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return engine
	}
	size := cfg.FontSize
	if size <= 0 {
		size = 28
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return engine
	}
	engine.face = face
	return engine
}

// RenderText draws the identifying text onto a transparent canvas with a
// drop shadow. When no font was loaded it uses the bitmap fallback face.
func (e *Engine) RenderText(text string) *image.RGBA {
	face := e.face
	if face == nil {
		face = basicfont.Face7x13
	}

	width := font.MeasureString(face, text).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	canvas := image.NewRGBA(image.Rect(0, 0, width+2*textPaddingPx+shadowOffsetPx, height+2*textPaddingPx+shadowOffsetPx))

	shadow := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.RGBA{A: 180}),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(textPaddingPx + shadowOffsetPx),
			Y: fixed.I(textPaddingPx + shadowOffsetPx + metrics.Ascent.Ceil()),
		},
	}
	shadow.DrawString(text)

	body := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(textPaddingPx),
			Y: fixed.I(textPaddingPx + metrics.Ascent.Ceil()),
		},
	}
	body.DrawString(text)

	return canvas
}

// Composite decodes the base image, applies the overlay per the spec and
// re-encodes in the source format. The returned format is "png" or "jpeg".
func (e *Engine) Composite(base []byte, overlay image.Image, spec Spec) ([]byte, string, error) {
	src, format, err := image.Decode(bytes.NewReader(base))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding base image")
	}
	if format != "png" && format != "jpeg" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported image format %q", format))
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	prepared := scaleOverlay(overlay, spec.Scale)

	switch spec.Position {
	case enums.WatermarkPositionDiagonal:
		e.tileDiagonal(dst, prepared, spec.Opacity)
	default:
		origin := e.overlayOrigin(bounds, prepared.Bounds(), spec)
		drawWithOpacity(dst, prepared, origin, spec.Opacity)
	}

	var out bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&out, dst); err != nil {
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding png")
		}
	case "jpeg":
		if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding jpeg")
		}
	}
	return out.Bytes(), format, nil
}

// overlayOrigin resolves the position enum to a pixel origin for the overlay.
func (e *Engine) overlayOrigin(base, overlay image.Rectangle, spec Spec) image.Point {
	bw, bh := base.Dx(), base.Dy()
	ow, oh := overlay.Dx(), overlay.Dy()

	switch spec.Position {
	case enums.WatermarkPositionCenter:
		return image.Pt(base.Min.X+(bw-ow)/2, base.Min.Y+(bh-oh)/2)
	case enums.WatermarkPositionCustom:
		cx := base.Min.X + (bw-ow)/2 + int(math.Round(spec.OffsetX/100*float64(bw)))
		cy := base.Min.Y + (bh-oh)/2 + int(math.Round(spec.OffsetY/100*float64(bh)))
		return image.Pt(cx, cy)
	default: // corner
		margin := int(math.Round(e.cornerMarginPct / 100 * float64(min(bw, bh))))
		return image.Pt(base.Max.X-ow-margin, base.Max.Y-oh-margin)
	}
}

// tileDiagonal repeats the overlay rotated across the full image for
// stronger anti-leak protection.
func (e *Engine) tileDiagonal(dst *image.RGBA, overlay image.Image, opacity float64) {
	rotated := rotate(overlay, -math.Pi/6)
	rb := rotated.Bounds()
	stepX := rb.Dx() + int(float64(rb.Dx())*diagonalTileGapPct)
	stepY := rb.Dy() + int(float64(rb.Dy())*diagonalTileGapPct)
	if stepX <= 0 || stepY <= 0 {
		return
	}
	bounds := dst.Bounds()
	row := 0
	for y := bounds.Min.Y - rb.Dy(); y < bounds.Max.Y; y += stepY {
		offset := 0
		if row%2 == 1 {
			offset = stepX / 2
		}
		for x := bounds.Min.X - rb.Dx() + offset; x < bounds.Max.X; x += stepX {
			drawWithOpacity(dst, rotated, image.Pt(x, y), opacity)
		}
		row++
	}
}

func scaleOverlay(overlay image.Image, scale float64) image.Image {
	if scale == 1 || scale <= 0 {
		return overlay
	}
	b := overlay.Bounds()
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	if w < 1 || h < 1 {
		return overlay
	}
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), overlay, b, xdraw.Over, nil)
	return scaled
}

func drawWithOpacity(dst *image.RGBA, overlay image.Image, origin image.Point, opacity float64) {
	if opacity <= 0 {
		return
	}
	rect := overlay.Bounds().Sub(overlay.Bounds().Min).Add(origin)
	if opacity >= 1 {
		draw.Draw(dst, rect, overlay, overlay.Bounds().Min, draw.Over)
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(opacity * 255))})
	draw.DrawMask(dst, rect, overlay, overlay.Bounds().Min, mask, image.Point{}, draw.Over)
}

// rotate renders the overlay rotated by the given angle around its center,
// returning a canvas large enough to hold the rotated bounds.
func rotate(src image.Image, radians float64) *image.RGBA {
	b := src.Bounds()
	sin, cos := math.Sincos(radians)
	w := float64(b.Dx())
	h := float64(b.Dy())
	newW := int(math.Ceil(math.Abs(w*cos) + math.Abs(h*sin)))
	newH := int(math.Ceil(math.Abs(w*sin) + math.Abs(h*cos)))
	if newW < 1 || newH < 1 {
		newW, newH = b.Dx(), b.Dy()
	}
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))

	// rotate around the source center, then translate into the new center
	cx := float64(b.Min.X) + w/2
	cy := float64(b.Min.Y) + h/2
	transform := f64.Aff3{
		cos, -sin, float64(newW)/2 - cx*cos + cy*sin,
		sin, cos, float64(newH)/2 - cx*sin - cy*cos,
	}
	xdraw.BiLinear.Transform(dst, transform, src, b, xdraw.Over, nil)
	return dst
}
