package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/sglre6355/portfolio/internal/modules/music_player"
	_ "github.com/sglre6355/portfolio/internal/modules/profile"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/portfolio
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "portfolio",
		Short:         "Music portfolio site with a shared audio player",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(serveCmd(), catalogCmd(), playCmd())

	return cmd
}
