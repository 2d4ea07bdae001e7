package card

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"
)

// ErrorCard renders a minimal card of the standard dimensions carrying
// an error message. It is used when an external template cannot be
// fetched or applied, so that embed mode always answers with an image.
func ErrorCard(msg string) string {
	var buf bytes.Buffer

	canvas := svg.New(&buf)
	canvas.Start(Width, Height)
	canvas.Roundrect(0, 0, Width, Height, DefaultBorderRadius, DefaultBorderRadius, "fill:#F2F2F2")
	canvas.Text(Width/2, Height/2+5, Escape(msg), errorTextStyle)
	canvas.End()

	return buf.String()
}

var errorTextStyle = fmt.Sprintf(
	"text-anchor:middle;font-family:%s;font-size:14px;fill:#1A1A1A",
	"'Century Gothic',-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Helvetica,Arial,sans-serif",
)
