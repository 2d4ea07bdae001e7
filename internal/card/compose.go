// Package card composes the "now playing" SVG artifact from fetched
// cover art, sanitized track metadata and a colour theme.
package card

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/keiradan/trackcard/internal/artwork"
)

// Card dimensions shared by the built-in layout and the fallback card.
const (
	Width  = 412
	Height = 128
)

// Default corner radii for the card background and the cover image.
const (
	DefaultBorderRadius = 20
	DefaultCoverRadius  = 16
)

// maxTemplateBytes caps how much of an external template is read.
const maxTemplateBytes = 10 << 20

// Text carries the free-text track metadata. Fields are raw; the
// composer escapes them exactly once on the way into markup.
type Text struct {
	Artist string
	Album  string
	Title  string
}

// Request carries everything needed to compose one card. It is built per
// request and never mutated after construction.
type Request struct {
	Image        artwork.Image
	BorderRadius int
	CoverRadius  int
	Theme        Theme
	Text         Text
	IsPlaying    bool

	// TemplateURL, when set, selects external template mode: the
	// resource at this URL is fetched and its placeholders substituted
	// instead of rendering the built-in layout.
	TemplateURL string
}

// Options selects how playback state is surfaced on the card. Deployed
// variants disagree on whether a paused track shows as a missing
// equalizer glyph or as an overlay on the cover, so both are independent
// switches.
type Options struct {
	// EqualizerGlyph prefixes the artist line with an animated
	// three-bar equalizer while a track is playing.
	EqualizerGlyph bool

	// PauseOverlay stamps a pause glyph onto the cover image of a
	// track that is not playing. The overlay itself is applied by the
	// image transformer before composition.
	PauseOverlay bool
}

// TemplateError reports an unreachable or invalid external template.
// It is recovered locally by rendering a fallback card and never
// surfaces as a 5xx.
type TemplateError struct {
	URL string
	Err error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("card: external template %s: %v", e.URL, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// Composer renders SVG cards.
type Composer struct {
	opts       Options
	httpClient *http.Client
	logger     zerolog.Logger
	tmpl       *template.Template
}

// NewComposer creates a Composer. httpClient is used only for external
// template mode and may be nil, in which case a client with a 10 second
// timeout is used.
func NewComposer(opts Options, httpClient *http.Client, logger zerolog.Logger) *Composer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Composer{
		opts:       opts,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "composer").Logger(),
		tmpl:       template.Must(template.New("card").Parse(builtinTemplate)),
	}
}

// Options returns the playback-state options the composer was built with.
func (c *Composer) Options() Options {
	return c.opts
}

// Compose renders the card for one request.
//
// In built-in mode the fixed 412x128 layout is filled in. In external
// template mode the caller-supplied template is fetched and substituted;
// if that fails for any reason a fallback card carrying the error text
// is returned instead, with a nil error.
func (c *Composer) Compose(ctx context.Context, req Request) (string, error) {
	if req.TemplateURL != "" {
		svg, err := c.composeExternal(ctx, req)
		if err != nil {
			c.logger.Warn().Err(err).Str("url", req.TemplateURL).Msg("External template failed, rendering fallback card")
			return ErrorCard(err.Error()), nil
		}
		return svg, nil
	}
	return c.composeBuiltin(req)
}

// builtinData is the fully escaped field set fed to the built-in
// template.
type builtinData struct {
	Width        int
	Height       int
	BorderRadius int
	CoverRadius  int
	Background   string
	TextColour   string
	Accent       string
	Title        string
	Artist       string
	Album        string
	DataURI      string
	Equalizer    bool
}

func (c *Composer) composeBuiltin(req Request) (string, error) {
	data := builtinData{
		Width:        Width,
		Height:       Height,
		BorderRadius: req.BorderRadius,
		CoverRadius:  req.CoverRadius,
		Background:   req.Theme.Background,
		TextColour:   req.Theme.Text,
		Accent:       req.Theme.Accent,
		Title:        Escape(req.Text.Title),
		Artist:       Escape(req.Text.Artist),
		Album:        Escape(req.Text.Album),
		DataURI:      DataURI(req.Image),
		Equalizer:    req.IsPlaying && c.opts.EqualizerGlyph,
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render card template: %w", err)
	}
	return buf.String(), nil
}

func (c *Composer) composeExternal(ctx context.Context, req Request) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.TemplateURL, nil)
	if err != nil {
		return "", &TemplateError{URL: req.TemplateURL, Err: err}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &TemplateError{URL: req.TemplateURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TemplateError{
			URL: req.TemplateURL,
			Err: fmt.Errorf("%d - resource not found", resp.StatusCode),
		}
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "image/svg+xml" {
		return "", &TemplateError{
			URL: req.TemplateURL,
			Err: errors.New("resource provided is not an SVG"),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTemplateBytes))
	if err != nil {
		return "", &TemplateError{URL: req.TemplateURL, Err: err}
	}

	// Every occurrence of each placeholder is substituted, not just
	// the first.
	replacer := strings.NewReplacer(
		"${artist}", Escape(req.Text.Artist),
		"${album}", Escape(req.Text.Album),
		"${title}", Escape(req.Text.Title),
		"${image}", DataURI(req.Image),
	)
	return replacer.Replace(string(body)), nil
}

// DataURI encodes an image as a base64 data URI suitable for an SVG
// <img> source or the ${image} placeholder.
func DataURI(img artwork.Image) string {
	return "data:" + img.MIME + ";base64," + base64.StdEncoding.EncodeToString(img.Bytes)
}

// builtinTemplate is the fixed card layout: a rounded themed background,
// the cover on the left bordered in the accent colour, the title
// clamped to two lines above the "artist - album" line. The equalizer
// bars render only for a playing track.
const builtinTemplate = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xhtml="http://www.w3.org/1999/xhtml" width="{{.Width}}" height="{{.Height}}"><foreignObject width="{{.Width}}" height="{{.Height}}">{{if .Equalizer}}<style>.bars{position:relative;display:inline-flex;justify-content:space-between;width:12px;height:12px;margin-right:4px;}.bar{width:2px;height:100%;background-color:{{.Accent}};border-radius:10000px;transform-origin:bottom;animation:bounce 0.8s ease infinite alternate;contents:'';}.bar:nth-of-type(2){animation-delay:-0.8s;}.bar:nth-of-type(3){animation-delay:-1.2s;}@keyframes bounce{0%{transform:scaleY(0.1);}100%{transform:scaleY(1);}}</style>{{end}}<div xmlns="http://www.w3.org/1999/xhtml" style="display:flex;flex-direction:row;justify-content:flex-start;align-items:center;width:100%;height:100%;border-radius:{{.BorderRadius}}px;background-color:{{.Background}};color:{{.TextColour}};padding:0 14px;box-sizing:border-box;overflow:clip;"><div style="display:flex;height:fit-content;width:fit-content;"><img src="{{.DataURI}}" alt="Cover" style="border:1.6px solid {{.Accent}};border-radius:{{.CoverRadius}}px;background-color:{{.Accent}}" width="100px" height="100px"/></div><div style="display:flex;flex-direction:column;padding-left:14px;"><span style="font-family:'Century Gothic',-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;overflow:hidden;display:-webkit-box;-webkit-line-clamp:2;-webkit-box-orient:vertical;line-height:1.5rem;font-size:20px;font-weight:bold;padding-bottom:6px;border-bottom:1.6px solid {{.Accent}};">{{.Title}}</span><div style="display:flex;flex-direction:row;justify-content:flex-start;align-items:baseline;width:100%;height:100%;"><span style="font-family:'Century Gothic',-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;overflow:hidden;display:-webkit-box;-webkit-line-clamp:2;-webkit-box-orient:vertical;line-height:1.5rem;font-size:16px;font-weight:normal;margin-top:4px;">{{if .Equalizer}}<div class="bars"><span class="bar"/><span class="bar"/><span class="bar"/></div>{{end}}{{.Artist}} - {{.Album}}</span></div></div></div></foreignObject></svg>`
