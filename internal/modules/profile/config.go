package profile

// Config holds the profile module configuration.
type Config struct {
	// ProfilePath points at a profile JSON file; empty uses the bundled profile.
	ProfilePath string `env:"PROFILE_PATH"`
}
