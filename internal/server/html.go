package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mattn/go-runewidth"

	"github.com/keiradan/trackcard/internal/artwork"
	"github.com/keiradan/trackcard/internal/card"
)

// maxHTMLTitleWidth is the display width the title is ellipsized to in
// HTML mode, measured in terminal-style columns so wide characters
// count double.
const maxHTMLTitleWidth = 60

// serveHTML returns a centered fragment with the track metadata and
// cover image.
func (h *Handler) serveHTML(c *gin.Context, track *Track) {
	playedAt := track.PlayedAt
	if track.IsPlaying {
		playedAt = "Now playing"
	}

	coverURL := artwork.OverrideCoverURL(track.Album, track.CoverURL)

	body := fmt.Sprintf(
		`<center style="font-family:'Century Gothic',-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;">
<h2>%s</h2>
<p>%s - %s</p>
<p>%s</p>
<img src="%s" alt="Cover" width="300" height="300"/>
</center>`,
		card.Escape(ellipsize(track.Title, maxHTMLTitleWidth)),
		card.Escape(track.Artist),
		card.Escape(track.Album),
		card.Escape(playedAt),
		card.Escape(coverURL),
	)

	c.Data(http.StatusOK, htmlContentType, []byte(body))
}

// ellipsize truncates text to width display columns, appending an
// ellipsis when anything was cut.
func ellipsize(text string, width int) string {
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}
