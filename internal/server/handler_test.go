package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/keiradan/trackcard/internal/artwork"
	"github.com/keiradan/trackcard/internal/card"
	"github.com/keiradan/trackcard/internal/config"
	"github.com/keiradan/trackcard/internal/scratch"
)

// fakeActivity satisfies ActivityClient with a canned answer.
type fakeActivity struct {
	track *Track
	err   error
}

func (f *fakeActivity) RecentTrack(ctx context.Context, username string) (*Track, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.track, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080},
		LastFM: config.LastFMConfig{APIKey: "k", APISecret: "s"},
		Card: config.CardConfig{
			EqualizerGlyph: true,
		},
		UpstreamTimeout: 5 * time.Second,
	}
}

// newTestEngine builds the full pipeline around a fake activity client
// and returns the router.
func newTestEngine(t *testing.T, cfg *config.Config, activity ActivityClient) http.Handler {
	t.Helper()

	dir, err := scratch.New(t.TempDir())
	if err != nil {
		t.Fatalf("scratch.New() error = %v", err)
	}

	logger := zerolog.Nop()
	h := NewHandler(
		cfg,
		map[string]ActivityClient{"lastfm": activity},
		artwork.NewFetcher(5*time.Second, logger),
		artwork.NewTransformer(dir, logger),
		card.NewComposer(card.Options{
			EqualizerGlyph: cfg.Card.EqualizerGlyph,
			PauseOverlay:   cfg.Card.PauseOverlay,
		}, nil, logger),
		logger,
	)
	return New(cfg, h, logger).Engine()
}

// coverServer serves fixed image bytes for cover fetches.
func coverServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Etag", `"cover-v1"`)
		_, _ = w.Write([]byte("jpegbytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func playingTrack(coverURL string) *Track {
	raw, _ := json.Marshal(map[string]interface{}{
		"name":   "Song",
		"artist": map[string]string{"#text": "Band"},
		"album":  map[string]string{"#text": "Album"},
		"@attr":  map[string]string{"nowplaying": "true"},
	})
	return &Track{
		Title:     "Song",
		Artist:    "Band",
		Album:     "Album",
		CoverURL:  coverURL,
		ProxyURL:  coverURL,
		IsPlaying: true,
		Raw:       raw,
	}
}

func get(t *testing.T, engine http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRoot(t *testing.T) {
	engine := newTestEngine(t, testConfig(), &fakeActivity{})

	w := get(t, engine, "/")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Error("expected placeholder body")
	}
}

func TestMissingUsername(t *testing.T) {
	engine := newTestEngine(t, testConfig(), &fakeActivity{})

	for _, path := range []string{"/api/v1", "/api/v1/"} {
		w := get(t, engine, path)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), "not provided") {
			t.Errorf("GET %s body = %q, want username error", path, w.Body.String())
		}
	}
}

func TestJSONMode(t *testing.T) {
	engine := newTestEngine(t, testConfig(), &fakeActivity{track: playingTrack("http://unused.example/c.jpg")})

	w := get(t, engine, "/api/v1/alice?res=json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var record struct {
		Name   string `json:"name"`
		Artist struct {
			Text string `json:"#text"`
		} `json:"artist"`
		Album struct {
			Text string `json:"#text"`
		} `json:"album"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &record); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if record.Name != "Song" || record.Artist.Text != "Band" || record.Album.Text != "Album" {
		t.Errorf("record = %+v, want original fields", record)
	}

	// Pretty-printed, not compact.
	if !strings.Contains(w.Body.String(), "\n    ") {
		t.Error("JSON body is not indented")
	}
}

func TestEmbedMode(t *testing.T) {
	cover := coverServer(t, http.StatusOK)
	engine := newTestEngine(t, testConfig(), &fakeActivity{track: playingTrack(cover.URL)})

	w := get(t, engine, "/api/v1/alice?res=embed&theme=dark&borderRadius=10")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	if got := w.Header().Get("Age"); got != "0" {
		t.Errorf("Age = %q, want 0", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=0, must-revalidate" {
		t.Errorf("Cache-Control = %q", got)
	}

	body := w.Body.String()
	if !strings.Contains(body, "#1A1A1A") {
		t.Error("dark theme background missing from SVG")
	}
	if !strings.Contains(body, "border-radius:10px") {
		t.Error("borderRadius=10 not reflected in SVG")
	}
	if !strings.Contains(body, `class="bars"`) {
		t.Error("equalizer marker missing for a playing track")
	}
}

func TestEmbedMode_IsDefault(t *testing.T) {
	cover := coverServer(t, http.StatusOK)
	engine := newTestEngine(t, testConfig(), &fakeActivity{track: playingTrack(cover.URL)})

	w := get(t, engine, "/api/v1/alice")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
}

func TestEmbedMode_CoverFetchFailure(t *testing.T) {
	cover := coverServer(t, http.StatusInternalServerError)
	engine := newTestEngine(t, testConfig(), &fakeActivity{track: playingTrack(cover.URL)})

	w := get(t, engine, "/api/v1/alice?res=embed")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Error("expected error message body")
	}
}

func TestEmbedMode_PausedHidesEqualizer(t *testing.T) {
	cover := coverServer(t, http.StatusOK)
	track := playingTrack(cover.URL)
	track.IsPlaying = false
	engine := newTestEngine(t, testConfig(), &fakeActivity{track: track})

	w := get(t, engine, "/api/v1/alice")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), `class="bars"`) {
		t.Error("equalizer marker present for a paused track")
	}
}

func TestEmbedMode_ExternalTemplateFailureStaysLocal(t *testing.T) {
	cover := coverServer(t, http.StatusOK)
	tmpl := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer tmpl.Close()

	engine := newTestEngine(t, testConfig(), &fakeActivity{track: playingTrack(cover.URL)})

	w := get(t, engine, "/api/v1/alice?res=embed&url="+tmpl.URL)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with fallback card", w.Code)
	}
	if !strings.Contains(w.Body.String(), `width="412"`) {
		t.Error("fallback card has wrong dimensions")
	}
}

func TestActivityFailure(t *testing.T) {
	engine := newTestEngine(t, testConfig(), &fakeActivity{err: errors.New("upstream exploded")})

	w := get(t, engine, "/api/v1/alice")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "upstream exploded") {
		t.Errorf("body = %q, want error text", w.Body.String())
	}
}

func TestCoverMode(t *testing.T) {
	cover := coverServer(t, http.StatusOK)
	engine := newTestEngine(t, testConfig(), &fakeActivity{track: playingTrack(cover.URL)})

	for _, res := range []string{"cover", "art"} {
		w := get(t, engine, "/api/v1/alice?res="+res)
		if w.Code != http.StatusOK {
			t.Fatalf("res=%s status = %d, want 200", res, w.Code)
		}
		if w.Body.String() != "jpegbytes" {
			t.Errorf("res=%s body = %q, want raw cover bytes", res, w.Body.String())
		}
		if got := w.Header().Get("Etag"); got != `"cover-v1"` {
			t.Errorf("res=%s Etag = %q, want upstream header forwarded", res, got)
		}
		if got := w.Header().Get("Age"); got != "0" {
			t.Errorf("res=%s Age = %q, want 0", res, got)
		}
	}
}

func TestCoverMode_UpstreamFailure(t *testing.T) {
	cover := coverServer(t, http.StatusNotFound)
	engine := newTestEngine(t, testConfig(), &fakeActivity{track: playingTrack(cover.URL)})

	w := get(t, engine, "/api/v1/alice?res=cover")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestHTMLMode(t *testing.T) {
	engine := newTestEngine(t, testConfig(), &fakeActivity{track: playingTrack("http://img.example/c.jpg")})

	w := get(t, engine, "/api/v1/alice?res=html")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := w.Body.String()
	for _, want := range []string{"Song", "Band - Album", "Now playing", `<img src="http://img.example/c.jpg"`} {
		if !strings.Contains(body, want) {
			t.Errorf("HTML body missing %q", want)
		}
	}
}

func TestUnknownSource(t *testing.T) {
	engine := newTestEngine(t, testConfig(), &fakeActivity{track: playingTrack("http://unused.example/c.jpg")})

	w := get(t, engine, "/api/v1/alice?source=mixcloud")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUnmatchedRoute(t *testing.T) {
	engine := newTestEngine(t, testConfig(), &fakeActivity{})

	w := get(t, engine, "/definitely/not/a/route")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want permissive 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Cannot GET /definitely/not/a/route") {
		t.Errorf("body = %q, want Cannot GET page", w.Body.String())
	}
}

func TestUnmatchedRoute_Strict(t *testing.T) {
	cfg := testConfig()
	cfg.Server.StrictRoutes = true
	engine := newTestEngine(t, cfg, &fakeActivity{})

	w := get(t, engine, "/definitely/not/a/route")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want strict 404", w.Code)
	}
}

func TestEllipsize(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a very long track title indeed", 10, "a very lo…"},
	}

	for _, tt := range tests {
		if got := ellipsize(tt.in, tt.width); got != tt.want {
			t.Errorf("ellipsize(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
