package artwork

// OverrideCoverURL substitutes a pinned CDN copy of the cover for
// releases whose upstream artwork is missing or broken. Seed data,
// consulted while building the card request; anything unlisted keeps
// the upstream URL.
func OverrideCoverURL(album, url string) string {
	switch album {
	case "L’enfer":
		return "https://cdn.kio.dev/file/lenfer.jpg"
	case "Santé":
		return "https://cdn.kio.dev/file/sante.jpg"
	case "Multitude":
		return "https://cdn.kio.dev/file/multitude.jpg"
	case "Racine carrée (Standard US Version)":
		return "https://cdn.kio.dev/file/racinecarree.jpg"
	case "Lil Black Heart":
		return "https://cdn.kio.dev/file/lilblackheart.jpg"
	default:
		return url
	}
}
