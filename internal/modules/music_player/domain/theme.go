package domain

// Fallback theme colors used when a song does not carry its own.
const (
	FallbackDominantColor = "#6750A4"
	FallbackAccentColor   = "#E8DEF8"
)

// ThemeColors is the dominant/accent color pair derived from the current song.
type ThemeColors struct {
	Dominant string
	Accent   string
}

// DefaultThemeColors returns the fallback pair.
func DefaultThemeColors() ThemeColors {
	return ThemeColors{
		Dominant: FallbackDominantColor,
		Accent:   FallbackAccentColor,
	}
}

// ThemeFor derives the theme from a song's stored colors.
// Each missing color falls back independently.
func ThemeFor(song Song) ThemeColors {
	theme := DefaultThemeColors()
	if song.PrimaryColor != "" {
		theme.Dominant = song.PrimaryColor
	}
	if song.SecondaryColor != "" {
		theme.Accent = song.SecondaryColor
	}
	return theme
}
