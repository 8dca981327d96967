package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/sglre6355/portfolio/internal/modules/music_player"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
	"github.com/sglre6355/portfolio/internal/modules/music_player/infrastructure"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the song catalog",
	}
	cmd.AddCommand(catalogListCmd(), catalogProbeCmd())
	return cmd
}

func catalogListCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List catalog songs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, _, err := loadCatalog()
			if err != nil {
				return err
			}

			songs := catalog.Songs()
			if query != "" {
				songs = catalog.Search(query)
			}
			renderCatalog(cmd.OutOrStdout(), songs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "only list songs whose title, album or artist matches")

	return cmd
}

func catalogProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Compare catalog durations with the audio files in MEDIA_DIR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, cfg, err := loadCatalog()
			if err != nil {
				return err
			}

			results, err := infrastructure.NewCatalogProber(cfg.MediaDir).Probe(cmd.Context(), catalog)
			if err != nil {
				return err
			}

			failed := renderProbe(cmd.OutOrStdout(), results)
			if failed > 0 {
				return fmt.Errorf("%d of %d songs could not be probed", failed, len(results))
			}
			return nil
		},
	}
}

// loadCatalog reads the catalog as declared, without probing.
func loadCatalog() (*domain.Catalog, *music_player.Config, error) {
	if _, err := setup(); err != nil {
		return nil, nil, err
	}

	cfg, err := music_player.ParseConfig()
	if err != nil {
		return nil, nil, err
	}

	catalog, err := infrastructure.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	return catalog, cfg, nil
}

func renderCatalog(w io.Writer, songs []domain.Song) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "ID", "Title", "Album", "Year", "Length", "Preview"})

	for i, song := range songs {
		year := ""
		if song.Year > 0 {
			year = strconv.Itoa(song.Year)
		}
		preview := ""
		if song.HasPreview() {
			preview = "yes"
		}
		t.AppendRow(table.Row{i + 1, song.ID, song.Title, song.Album, year, song.FormattedDuration(), preview})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.AppendFooter(table.Row{"", "", "", "", "", "", fmt.Sprintf("%d songs", len(songs))})
	t.Render()
}

// renderProbe writes the probe results and returns how many songs failed.
func renderProbe(w io.Writer, results []infrastructure.ProbeResult) int {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Declared", "Measured", "Status"})

	failed := 0
	for _, r := range results {
		declared := "-"
		if r.Declared > 0 {
			declared = domain.FormatPosition(r.Declared)
		}

		measured := "-"
		status := text.FgGreen.Sprint("ok")
		switch {
		case r.Err != nil:
			failed++
			status = text.FgRed.Sprint(r.Err.Error())
		case r.Mismatch():
			measured = domain.FormatPosition(r.Measured)
			status = text.FgYellow.Sprint("mismatch")
		default:
			measured = domain.FormatPosition(r.Measured)
		}

		t.AppendRow(table.Row{r.SongID, r.Title, declared, measured, status})
	}

	t.Render()
	return failed
}
