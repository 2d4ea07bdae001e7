package card

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/keiradan/trackcard/internal/artwork"
)

func testRequest() Request {
	return Request{
		Image:        artwork.Image{Bytes: []byte("imagebytes"), MIME: "image/jpeg"},
		BorderRadius: DefaultBorderRadius,
		CoverRadius:  DefaultCoverRadius,
		Theme:        ResolveTheme("light"),
		Text:         Text{Artist: "Band", Album: "Album", Title: "Song"},
		IsPlaying:    true,
	}
}

func TestCompose_Builtin(t *testing.T) {
	c := NewComposer(Options{EqualizerGlyph: true}, nil, zerolog.Nop())

	svg, err := c.Compose(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	for _, want := range []string{
		`width="412"`,
		`height="128"`,
		"#F2F2F2",
		"border-radius:20px",
		"border-radius:16px",
		"Song",
		"Band - Album",
		"data:image/jpeg;base64,aW1hZ2VieXRlcw==",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("composed SVG missing %q", want)
		}
	}
}

func TestCompose_EqualizerMarker(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		isPlaying bool
		wantBars  bool
	}{
		{"playing with glyph", Options{EqualizerGlyph: true}, true, true},
		{"paused with glyph", Options{EqualizerGlyph: true}, false, false},
		{"playing without glyph", Options{EqualizerGlyph: false}, true, false},
		{"paused without glyph", Options{EqualizerGlyph: false}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComposer(tt.opts, nil, zerolog.Nop())
			req := testRequest()
			req.IsPlaying = tt.isPlaying

			svg, err := c.Compose(context.Background(), req)
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if got := strings.Contains(svg, `class="bars"`); got != tt.wantBars {
				t.Errorf("bars marker present = %v, want %v", got, tt.wantBars)
			}
		})
	}
}

func TestCompose_ThemeAndRadiiReflected(t *testing.T) {
	c := NewComposer(Options{EqualizerGlyph: true}, nil, zerolog.Nop())
	req := testRequest()
	req.Theme = ResolveTheme("dark")
	req.BorderRadius = 10

	svg, err := c.Compose(context.Background(), req)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !strings.Contains(svg, "#1A1A1A") {
		t.Error("dark background colour missing from SVG")
	}
	if !strings.Contains(svg, "border-radius:10px") {
		t.Error("borderRadius=10 not reflected in SVG")
	}
}

func TestCompose_EscapesMetadata(t *testing.T) {
	c := NewComposer(Options{}, nil, zerolog.Nop())
	req := testRequest()
	req.Text = Text{
		Artist: "Simon & Garfunkel",
		Album:  `"Greatest" Hits`,
		Title:  "<Bridge> Over Troubled Water",
	}

	svg, err := c.Compose(context.Background(), req)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if strings.Contains(svg, "<Bridge>") {
		t.Error("raw title markup leaked into SVG")
	}
	for _, want := range []string{
		"Simon &amp; Garfunkel",
		"&quot;Greatest&quot; Hits",
		"&lt;Bridge&gt; Over Troubled Water",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("composed SVG missing escaped text %q", want)
		}
	}
}

func TestCompose_ExternalReplacesAllOccurrences(t *testing.T) {
	const tmpl = `<svg xmlns="http://www.w3.org/2000/svg">` +
		`<text>${artist}</text><text>${artist}</text>` +
		`<text>${album}</text><text>${album}</text>` +
		`<text>${title}</text><text>${title}</text>` +
		`<image href="${image}"/><image href="${image}"/>` +
		`</svg>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(tmpl))
	}))
	defer srv.Close()

	c := NewComposer(Options{}, srv.Client(), zerolog.Nop())
	req := testRequest()
	req.TemplateURL = srv.URL

	svg, err := c.Compose(context.Background(), req)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if strings.Contains(svg, "${") {
		t.Errorf("unsubstituted placeholder remains: %q", svg)
	}
	if got := strings.Count(svg, "Band"); got != 2 {
		t.Errorf("artist substituted %d times, want 2", got)
	}
	if got := strings.Count(svg, "data:image/jpeg;base64,"); got != 2 {
		t.Errorf("image substituted %d times, want 2", got)
	}
}

func TestCompose_ExternalNotFoundFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewComposer(Options{}, srv.Client(), zerolog.Nop())
	req := testRequest()
	req.TemplateURL = srv.URL

	svg, err := c.Compose(context.Background(), req)
	if err != nil {
		t.Fatalf("Compose() must recover template failures, got error %v", err)
	}
	if !strings.Contains(svg, `width="412"`) || !strings.Contains(svg, `height="128"`) {
		t.Errorf("fallback card has wrong dimensions: %q", svg)
	}
	if !strings.Contains(svg, "404") {
		t.Errorf("fallback card does not indicate the error: %q", svg)
	}
}

func TestCompose_ExternalWrongContentTypeFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not svg</html>"))
	}))
	defer srv.Close()

	c := NewComposer(Options{}, srv.Client(), zerolog.Nop())
	req := testRequest()
	req.TemplateURL = srv.URL

	svg, err := c.Compose(context.Background(), req)
	if err != nil {
		t.Fatalf("Compose() must recover template failures, got error %v", err)
	}
	if !strings.Contains(svg, "not an SVG") {
		t.Errorf("fallback card does not explain the failure: %q", svg)
	}
}

func TestCompose_ExternalUnreachableFallsBack(t *testing.T) {
	c := NewComposer(Options{}, nil, zerolog.Nop())
	req := testRequest()
	req.TemplateURL = "http://127.0.0.1:1/template.svg"

	svg, err := c.Compose(context.Background(), req)
	if err != nil {
		t.Fatalf("Compose() must recover template failures, got error %v", err)
	}
	if !strings.Contains(svg, `width="412"`) {
		t.Errorf("fallback card has wrong dimensions: %q", svg)
	}
}

func TestErrorCard(t *testing.T) {
	svg := ErrorCard(`boom & <bust>`)

	if !strings.Contains(svg, `width="412"`) || !strings.Contains(svg, `height="128"`) {
		t.Errorf("error card has wrong dimensions: %q", svg)
	}
	if strings.Contains(svg, "<bust>") {
		t.Error("error card did not escape the message")
	}
	if !strings.Contains(svg, "boom &amp;") {
		t.Errorf("error card missing message: %q", svg)
	}
}

func TestDataURI(t *testing.T) {
	got := DataURI(artwork.Image{Bytes: []byte("abc"), MIME: "image/png"})
	if want := "data:image/png;base64,YWJj"; got != want {
		t.Errorf("DataURI() = %q, want %q", got, want)
	}
}
