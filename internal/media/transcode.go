// Package media normalizes downloaded images onto a fixed 1200×675 canvas.
// Animated GIFs keep every frame and its original delay.
package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/metrics"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/pkg/log"
)

// Canvas dimensions.
const (
	Width  = 1200
	Height = 675
)

// defaultDelay is applied to GIF frames that declare no delay, in 1/100 s.
const defaultDelay = 10

// Decode limits. Pixel counts are taken from the image header, which for a
// GIF is its logical screen.
const (
	maxPixels      = 10_000_000
	maxFrames      = 300
	maxFramePixels = 120_000_000
)

// Payload is an encoded canvas ready to upload.
type Payload struct {
	Data        []byte
	Animated    bool
	Filename    string
	ContentType string
	// Durations holds one entry per frame; empty for still images.
	Durations []time.Duration
}

// Transcode decodes raw and renders it onto a black 1200×675 canvas. A GIF
// with more than one frame stays animated; anything else becomes a PNG.
// The second return value is false when the input cannot be used.
func Transcode(ctx context.Context, raw []byte) (Payload, bool) {
	const op = "media/transcode/Transcode"

	ctx, span := otel.Tracer("media").Start(ctx, "media.Transcode")
	defer span.End()

	logger := log.From(ctx).With(slog.String("op", op))

	if len(raw) == 0 {
		metrics.Transcodes.WithLabelValues("unknown", "empty").Inc()
		return Payload{}, false
	}

	mt := mimetype.Detect(raw)
	span.SetAttributes(
		attribute.String("media.mime", mt.String()),
		attribute.Int("media.bytes", len(raw)),
	)

	kind := "static"
	if mt.Is("image/gif") {
		kind = "animated"
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		span.RecordError(err)
		logger.Warn("transcode_failed",
			slog.String("kind", kind),
			slog.String("mime", mt.String()),
			slog.String("err", err.Error()),
		)
		metrics.Transcodes.WithLabelValues(kind, "decode_error").Inc()
		return Payload{}, false
	}
	area := int64(cfg.Width) * int64(cfg.Height)
	if area <= 0 || area > maxPixels {
		logger.Warn("transcode_rejected",
			slog.String("kind", kind),
			slog.Int("width", cfg.Width),
			slog.Int("height", cfg.Height),
		)
		metrics.Transcodes.WithLabelValues(kind, "too_large").Inc()
		return Payload{}, false
	}

	if mt.Is("image/gif") {
		if n := countFrames(raw); n > maxFrames || area*int64(n) > maxFramePixels {
			logger.Warn("transcode_rejected",
				slog.String("kind", kind),
				slog.Int("frames", n),
				slog.Int64("pixels", area),
			)
			metrics.Transcodes.WithLabelValues(kind, "too_large").Inc()
			return Payload{}, false
		}

		g, err := gif.DecodeAll(bytes.NewReader(raw))
		if err != nil {
			span.RecordError(err)
			logger.Warn("transcode_failed", slog.String("kind", "animated"), slog.String("err", err.Error()))
			metrics.Transcodes.WithLabelValues("animated", "decode_error").Inc()
			return Payload{}, false
		}
		if len(g.Image) > 1 {
			p, ok := animated(g)
			metrics.Transcodes.WithLabelValues("animated", outcome(ok)).Inc()
			return p, ok
		}
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		span.RecordError(err)
		logger.Warn("transcode_failed",
			slog.String("kind", "static"),
			slog.String("mime", mt.String()),
			slog.String("err", err.Error()),
		)
		metrics.Transcodes.WithLabelValues("static", "decode_error").Inc()
		return Payload{}, false
	}

	p, ok := still(src)
	metrics.Transcodes.WithLabelValues("static", outcome(ok)).Inc()
	return p, ok
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "empty_output"
}

func still(src image.Image) (Payload, bool) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, fit(src)); err != nil || buf.Len() == 0 {
		return Payload{}, false
	}

	return Payload{
		Data:        buf.Bytes(),
		Filename:    "meme.png",
		ContentType: "image/png",
	}, true
}

func animated(g *gif.GIF) (Payload, bool) {
	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(g.Image)),
		Delay:     make([]int, 0, len(g.Image)),
		LoopCount: 0,
		Config: image.Config{
			ColorModel: color.Palette(palette.Plan9),
			Width:      Width,
			Height:     Height,
		},
	}
	durations := make([]time.Duration, 0, len(g.Image))

	pl := newPlayer(g)
	for i := range g.Image {
		shown, delay := pl.frame(i)
		canvas := fit(shown)
		p := image.NewPaletted(canvas.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(p, p.Bounds(), canvas, image.Point{})

		out.Image = append(out.Image, p)
		out.Delay = append(out.Delay, delay)
		durations = append(durations, time.Duration(delay)*10*time.Millisecond)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil || buf.Len() == 0 {
		return Payload{}, false
	}

	return Payload{
		Data:        buf.Bytes(),
		Animated:    true,
		Filename:    "meme.gif",
		ContentType: "image/gif",
		Durations:   durations,
	}, true
}

// player plays a GIF on its logical screen one frame at a time. Buffers are
// allocated once and reused across frames.
type player struct {
	g        *gif.GIF
	rect     image.Rectangle
	screen   *image.RGBA
	previous *image.RGBA
	shown    *image.RGBA
}

func newPlayer(g *gif.GIF) *player {
	rect := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if rect.Empty() {
		for _, f := range g.Image {
			rect = rect.Union(f.Bounds())
		}
	}

	return &player{
		g:      g,
		rect:   rect,
		screen: image.NewRGBA(rect),
		shown:  image.NewRGBA(rect),
	}
}

// frame draws frame i and returns the screen as displayed, over opaque
// black, with its delay in 1/100 s. The image is overwritten by the next call.
func (p *player) frame(i int) (*image.RGBA, int) {
	f := p.g.Image[i]
	disposal := byte(0)
	if i < len(p.g.Disposal) {
		disposal = p.g.Disposal[i]
	}

	if disposal == gif.DisposalPrevious {
		if p.previous == nil {
			p.previous = image.NewRGBA(p.rect)
		}
		copy(p.previous.Pix, p.screen.Pix)
	}

	draw.Draw(p.screen, f.Bounds(), f, f.Bounds().Min, draw.Over)

	draw.Draw(p.shown, p.rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(p.shown, p.rect, p.screen, p.rect.Min, draw.Over)

	delay := defaultDelay
	if i < len(p.g.Delay) && p.g.Delay[i] > 0 {
		delay = p.g.Delay[i]
	}

	switch disposal {
	case gif.DisposalBackground:
		draw.Draw(p.screen, f.Bounds(), image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		copy(p.screen.Pix, p.previous.Pix)
	}

	return p.shown, delay
}

// countFrames walks the GIF block structure and counts image descriptors
// without decoding pixel data. A truncated stream returns the count so far.
func countFrames(raw []byte) int {
	const headerLen = 13
	if len(raw) < headerLen {
		return 0
	}
	pos := headerLen
	if flags := raw[10]; flags&0x80 != 0 {
		pos += 3 << ((flags & 0x07) + 1)
	}

	skipSubBlocks := func() bool {
		for pos < len(raw) {
			n := int(raw[pos])
			pos += 1 + n
			if n == 0 {
				return true
			}
		}
		return false
	}

	frames := 0
	for pos < len(raw) {
		switch raw[pos] {
		case 0x21: // extension
			pos += 2
			if !skipSubBlocks() {
				return frames
			}
		case 0x2c: // image descriptor
			if pos+10 > len(raw) {
				return frames
			}
			flags := raw[pos+9]
			pos += 10
			if flags&0x80 != 0 {
				pos += 3 << ((flags & 0x07) + 1)
			}
			frames++
			pos++ // LZW minimum code size
			if !skipSubBlocks() {
				return frames
			}
		default: // trailer or garbage
			return frames
		}
	}
	return frames
}

// fit scales src down to fit the canvas, never up, and centers it on black.
func fit(src image.Image) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	b := src.Bounds()
	if b.Empty() {
		return canvas
	}

	scale := math.Min(float64(Width)/float64(b.Dx()), float64(Height)/float64(b.Dy()))
	if scale > 1 {
		scale = 1
	}
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))

	x := (Width - w) / 2
	y := (Height - h) / 2
	draw.CatmullRom.Scale(canvas, image.Rect(x, y, x+w, y+h), src, b, draw.Over, nil)

	return canvas
}
