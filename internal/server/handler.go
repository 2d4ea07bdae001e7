package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/keiradan/trackcard/internal/artwork"
	"github.com/keiradan/trackcard/internal/card"
	"github.com/keiradan/trackcard/internal/config"
)

const (
	htmlContentType = "text/html; charset=utf-8"

	// Responses must never be served from an intermediary cache; the
	// track changes under them.
	cacheControlValue = "public, max-age=0, must-revalidate"
)

// Handler implements the route handlers for the card API. One linear
// pipeline per request: validate, fetch activity, fetch and transform
// the cover, compose, respond.
type Handler struct {
	cfg         *config.Config
	activity    map[string]ActivityClient
	fetcher     *artwork.Fetcher
	transformer *artwork.Transformer
	composer    *card.Composer
	logger      zerolog.Logger
}

// NewHandler wires the request pipeline. activity maps the value of the
// source query parameter to its provider; "lastfm" is the default.
func NewHandler(
	cfg *config.Config,
	activity map[string]ActivityClient,
	fetcher *artwork.Fetcher,
	transformer *artwork.Transformer,
	composer *card.Composer,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		cfg:         cfg,
		activity:    activity,
		fetcher:     fetcher,
		transformer: transformer,
		composer:    composer,
		logger:      logger.With().Str("component", "handler").Logger(),
	}
}

// Root serves the static placeholder.
func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "trackcard is running. Request /api/v1/{username} for a card.")
}

// MissingUsername answers requests that never named a user. This is the
// one terminal validation error, handled before any I/O.
func (h *Handler) MissingUsername(c *gin.Context) {
	c.Data(http.StatusNotFound, htmlContentType, []byte(errorPage("Username not provided")))
}

// NotFound answers unmatched routes.
func (h *Handler) NotFound(c *gin.Context) {
	status := http.StatusOK
	if h.cfg.Server.StrictRoutes {
		status = http.StatusNotFound
	}
	c.Data(status, htmlContentType, []byte(errorPage("Cannot GET "+c.Request.URL.Path)))
}

// Activity is the main entry point: GET /api/v1/:username.
func (h *Handler) Activity(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		h.MissingUsername(c)
		return
	}

	source := c.DefaultQuery("source", "lastfm")
	client, ok := h.activity[source]
	if !ok {
		c.Data(http.StatusNotFound, htmlContentType, []byte(errorPage("Unknown source "+source)))
		return
	}

	ctx, cancel := h.upstreamContext(c)
	defer cancel()

	track, err := client.RecentTrack(ctx, username)
	if err != nil {
		h.logger.Error().Err(err).Str("username", username).Str("source", source).Msg("Activity fetch failed")
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	switch c.DefaultQuery("res", "embed") {
	case "json":
		h.serveJSON(c, track)
	case "cover", "art":
		h.serveCover(c, track)
	case "html":
		h.serveHTML(c, track)
	default:
		h.serveEmbed(c, track)
	}
}

// serveJSON returns the provider's raw track record, pretty-printed.
func (h *Handler) serveJSON(c *gin.Context, track *Track) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, track.Raw, "", "    "); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	setNoCache(c)
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// serveCover proxies the raw cover bytes with the upstream's headers.
// An effect query parameter (pause, blur) switches to a transformed PNG
// instead of the passthrough.
func (h *Handler) serveCover(c *gin.Context, track *Track) {
	coverURL := artwork.OverrideCoverURL(track.Album, track.ProxyURL)
	if coverURL == "" {
		c.String(http.StatusInternalServerError, "cover art URL not found")
		return
	}

	ctx, cancel := h.upstreamContext(c)
	defer cancel()

	if effect := artwork.ParseEffect(c.Query("effect")); effect != artwork.EffectNone {
		h.serveTransformedCover(c, ctx, coverURL, effect)
		return
	}

	resp, err := h.fetcher.Open(ctx, coverURL)
	if err != nil {
		h.logger.Error().Err(err).Str("url", coverURL).Msg("Cover fetch failed")
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		for _, v := range values {
			c.Writer.Header().Add(name, v)
		}
	}
	setNoCache(c)
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		h.logger.Warn().Err(err).Msg("Cover stream interrupted")
	}
}

func (h *Handler) serveTransformedCover(c *gin.Context, ctx context.Context, coverURL string, effect artwork.Effect) {
	img, err := h.fetcher.Fetch(ctx, coverURL)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	img, err = h.transformer.Apply(img, effect)
	if err != nil {
		h.logger.Error().Err(err).Str("effect", effect.String()).Msg("Cover transform failed")
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	setNoCache(c)
	c.Data(http.StatusOK, img.MIME, img.Bytes)
}

// serveEmbed composes and returns the SVG card.
func (h *Handler) serveEmbed(c *gin.Context, track *Track) {
	borderRadius := intQuery(c, "borderRadius", card.DefaultBorderRadius)
	coverRadius := intQuery(c, "coverRadius", card.DefaultCoverRadius)
	theme := card.ResolveTheme(c.Query("theme"))

	coverURL := artwork.OverrideCoverURL(track.Album, track.CoverURL)
	if coverURL == "" {
		c.String(http.StatusInternalServerError, "cover art URL not found")
		return
	}

	ctx, cancel := h.upstreamContext(c)
	defer cancel()

	img, err := h.fetcher.Fetch(ctx, coverURL)
	if err != nil {
		h.logger.Error().Err(err).Str("url", coverURL).Msg("Cover fetch failed")
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	if h.cfg.Card.RasterCorners {
		img, err = h.transformer.Round(img, coverRadius)
		if err != nil {
			h.logger.Error().Err(err).Msg("Corner mask failed")
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
	}
	if h.composer.Options().PauseOverlay && !track.IsPlaying {
		img, err = h.transformer.Apply(img, artwork.EffectPauseOverlay)
		if err != nil {
			h.logger.Error().Err(err).Msg("Pause overlay failed")
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
	}

	svg, err := h.composer.Compose(c.Request.Context(), card.Request{
		Image:        img,
		BorderRadius: borderRadius,
		CoverRadius:  coverRadius,
		Theme:        theme,
		Text: card.Text{
			Artist: track.Artist,
			Album:  track.Album,
			Title:  track.Title,
		},
		IsPlaying:   track.IsPlaying,
		TemplateURL: c.Query("url"),
	})
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	setNoCache(c)
	c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
}

// upstreamContext bounds one upstream call with the configured timeout.
func (h *Handler) upstreamContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.cfg.UpstreamTimeout)
}

// setNoCache marks the response as immediately stale.
func setNoCache(c *gin.Context) {
	c.Header("Age", "0")
	c.Header("Cache-Control", cacheControlValue)
}

// intQuery parses an integer query parameter, coercing missing or
// malformed values to the default.
func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// errorPage renders the shared centered error body.
func errorPage(msg string) string {
	return fmt.Sprintf(
		`<center style="font-family:'Century Gothic',-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;"><h1>Error</h1><p>%s</p></center>`,
		card.Escape(msg),
	)
}
