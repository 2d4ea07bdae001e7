package card

// Theme is a named three-colour palette applied to the composed card.
type Theme struct {
	Background string // card background fill
	Text       string // primary text colour
	Accent     string // borders, separators and the equalizer bars
}

// DefaultThemeName is the palette used when no theme is requested.
const DefaultThemeName = "light"

// ResolveTheme maps a theme name to its palette. Lookup is
// case-sensitive; unknown or empty names fall back to the light palette.
func ResolveTheme(name string) Theme {
	switch name {
	case "dark":
		return Theme{Background: "#1A1A1A", Text: "#E6E6E6", Accent: "#CCCCCC"}
	case "nord":
		return Theme{Background: "#2E3440", Text: "#ECEFF4", Accent: "#81A1C1"}
	case "dracula":
		return Theme{Background: "#282A36", Text: "#F8F8F2", Accent: "#6272A4"}
	case "solarized":
		return Theme{Background: "#FDF6E3", Text: "#657B83", Accent: "#839496"}
	case "shoji":
		return Theme{Background: "#E8E8E3", Text: "#4D4D4D", Accent: "#4D4D4D"}
	default:
		return Theme{Background: "#F2F2F2", Text: "#1A1A1A", Accent: "#8C8C8C"}
	}
}
