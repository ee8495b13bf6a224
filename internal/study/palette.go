package study

// DefaultPalette is the fallback group palette.
var DefaultPalette = []string{
	"#000000", "#1F78B4", "#b2df8a", "#33a02c", "#fb9a99",
	"#e31a1c", "#fdbf6f", "#FF7F00", "#cab2d6", "#6a3d9a",
}

// ColorFor returns the group's explicit color or its palette slot by index.
func ColorFor(g *Group, palette []string) string {
	if g.Color != "" {
		return g.Color
	}
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return palette[g.Index%len(palette)]
}
