package artwork

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/rs/zerolog"

	"github.com/keiradan/trackcard/internal/scratch"
)

// Effect is an optional raster treatment applied to fetched cover art.
type Effect int

const (
	// EffectNone passes the image through untouched.
	EffectNone Effect = iota

	// EffectPauseOverlay resizes the cover and multiply-blends the
	// static paused glyph over it.
	EffectPauseOverlay

	// EffectBlur applies a fixed-strength Gaussian blur, used for
	// background treatments rather than the primary cover.
	EffectBlur
)

// String returns a human-readable effect name.
func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectPauseOverlay:
		return "pause-overlay"
	case EffectBlur:
		return "blur"
	default:
		return "unknown"
	}
}

// ParseEffect maps a query-parameter value to an Effect. Unknown values
// mean no effect.
func ParseEffect(s string) Effect {
	switch s {
	case "pause":
		return EffectPauseOverlay
	case "blur":
		return EffectBlur
	default:
		return EffectNone
	}
}

const (
	// maskCanvasSize is the square canvas the rounded-corner mask
	// renders on.
	maskCanvasSize = 300

	// overlayCanvasSize is the square the cover is resized to before
	// the pause glyph is blended over it.
	overlayCanvasSize = 200

	// blurSigma is the fixed Gaussian blur strength.
	blurSigma = 14.0

	minCornerRadius     = 1
	maxCornerRadius     = 50
	defaultCornerRadius = 16
)

// TransformError reports a failed raster operation.
type TransformError struct {
	Stage string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("artwork: %s: %v", e.Stage, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// Transformer applies raster effects to fetched cover art. Raster
// intermediates go through the scratch directory and are removed on
// every exit path.
type Transformer struct {
	scratch *scratch.Dir
	logger  zerolog.Logger
}

// NewTransformer creates a Transformer writing intermediates into dir.
func NewTransformer(dir *scratch.Dir, logger zerolog.Logger) *Transformer {
	return &Transformer{
		scratch: dir,
		logger:  logger.With().Str("component", "transform").Logger(),
	}
}

// Round composites the image against a rounded-rectangle alpha mask on
// a fixed 300x300 canvas, producing a PNG with transparent corners.
// Radii outside [1,50] fall back to the default of 16 rather than
// erroring.
func (t *Transformer) Round(img Image, radius int) (Image, error) {
	if radius < minCornerRadius || radius > maxCornerRadius {
		radius = defaultCornerRadius
	}

	src, _, err := image.Decode(bytes.NewReader(img.Bytes))
	if err != nil {
		return Image{}, &TransformError{Stage: "decode", Err: err}
	}

	fitted := imaging.Fill(src, maskCanvasSize, maskCanvasSize, imaging.Center, imaging.Lanczos)

	dc := gg.NewContext(maskCanvasSize, maskCanvasSize)
	dc.DrawRoundedRectangle(0, 0, maskCanvasSize, maskCanvasSize, float64(radius))
	dc.Clip()
	dc.DrawImage(fitted, 0, 0)

	return t.encodePNG(dc.Image(), "round")
}

// Apply runs the requested effect. EffectNone is a pass-through.
func (t *Transformer) Apply(img Image, effect Effect) (Image, error) {
	switch effect {
	case EffectNone:
		return img, nil
	case EffectPauseOverlay:
		return t.pauseOverlay(img)
	case EffectBlur:
		return t.blur(img)
	default:
		return Image{}, &TransformError{Stage: "apply", Err: fmt.Errorf("unknown effect %d", effect)}
	}
}

func (t *Transformer) pauseOverlay(img Image) (Image, error) {
	src, _, err := image.Decode(bytes.NewReader(img.Bytes))
	if err != nil {
		return Image{}, &TransformError{Stage: "decode", Err: err}
	}

	resized := imaging.Resize(src, overlayCanvasSize, overlayCanvasSize, imaging.Lanczos)
	blended := multiplyBlend(resized, pauseGlyph(overlayCanvasSize))

	return t.encodePNG(blended, "pause-overlay")
}

func (t *Transformer) blur(img Image) (Image, error) {
	src, _, err := image.Decode(bytes.NewReader(img.Bytes))
	if err != nil {
		return Image{}, &TransformError{Stage: "decode", Err: err}
	}

	return t.encodePNG(imaging.Blur(src, blurSigma), "blur")
}

// encodePNG writes the image through a scratch artifact and returns its
// bytes. The artifact is released before returning, on success and
// failure alike.
func (t *Transformer) encodePNG(m image.Image, stage string) (Image, error) {
	art, err := t.scratch.Create("png")
	if err != nil {
		return Image{}, &TransformError{Stage: stage, Err: err}
	}
	defer func() {
		if err := art.Release(); err != nil {
			t.logger.Warn().Err(err).Str("path", art.Path).Msg("Failed to remove scratch artifact")
		}
	}()

	f, err := os.Create(art.Path)
	if err != nil {
		return Image{}, &TransformError{Stage: stage, Err: err}
	}
	if err := png.Encode(f, m); err != nil {
		_ = f.Close()
		return Image{}, &TransformError{Stage: stage, Err: err}
	}
	if err := f.Close(); err != nil {
		return Image{}, &TransformError{Stage: stage, Err: err}
	}

	data, err := os.ReadFile(art.Path)
	if err != nil {
		return Image{}, &TransformError{Stage: stage, Err: err}
	}

	return Image{Bytes: data, MIME: "image/png"}, nil
}

// pauseGlyph draws the static paused icon: two light bars on a dimmed
// disc over a neutral grey field, so a multiply blend darkens the
// centre of the cover evenly.
func pauseGlyph(size int) *image.NRGBA {
	s := float64(size)

	dc := gg.NewContext(size, size)
	dc.SetRGB(0.85, 0.85, 0.85)
	dc.Clear()

	dc.SetRGB(0.45, 0.45, 0.45)
	dc.DrawCircle(s/2, s/2, s/4)
	dc.Fill()

	barW := s / 16
	barH := s / 5
	dc.SetRGB(0.95, 0.95, 0.95)
	dc.DrawRectangle(s/2-barW*1.5, s/2-barH/2, barW, barH)
	dc.DrawRectangle(s/2+barW*0.5, s/2-barH/2, barW, barH)
	dc.Fill()

	return imaging.Clone(dc.Image())
}

// multiplyBlend multiplies a by b per channel. Both images must share
// the same bounds; alpha comes from a.
func multiplyBlend(a, b *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(a.Bounds())
	for i := 0; i+3 < len(a.Pix) && i+3 < len(b.Pix); i += 4 {
		out.Pix[i] = uint8(uint16(a.Pix[i]) * uint16(b.Pix[i]) / 255)
		out.Pix[i+1] = uint8(uint16(a.Pix[i+1]) * uint16(b.Pix[i+1]) / 255)
		out.Pix[i+2] = uint8(uint16(a.Pix[i+2]) * uint16(b.Pix[i+2]) / 255)
		out.Pix[i+3] = a.Pix[i+3]
	}
	return out
}
