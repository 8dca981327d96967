package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
	"github.com/sglre6355/portfolio/internal/modules/music_player/infrastructure"
)

func TestRenderCatalog(t *testing.T) {
	songs := []domain.Song{
		{ID: "lenny", Title: "Lenny", Album: "Lenny", Year: 2023, Duration: 3*time.Minute + 5*time.Second},
		{ID: "tide", Title: "Low Tide", Album: "Shoreline", PreviewURL: "/music/tide-preview.mp3"},
	}

	var buf bytes.Buffer
	renderCatalog(&buf, songs)
	out := buf.String()

	for _, want := range []string{"Lenny", "Low Tide", "3:05", "2023", "yes", "2 songs"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRenderProbe(t *testing.T) {
	results := []infrastructure.ProbeResult{
		{SongID: "a", Title: "A", Declared: time.Minute, Measured: time.Minute},
		{SongID: "b", Title: "B", Declared: time.Minute, Measured: 2 * time.Minute},
		{SongID: "c", Title: "C", Err: errors.New("no such file")},
	}

	var buf bytes.Buffer
	failed := renderProbe(&buf, results)

	if failed != 1 {
		t.Errorf("expected 1 failure, got %d", failed)
	}
	out := buf.String()
	for _, want := range []string{"ok", "mismatch", "no such file", "2:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := rootCmd()

	for _, path := range [][]string{{"serve"}, {"play"}, {"catalog", "list"}, {"catalog", "probe"}} {
		cmd, _, err := root.Find(path)
		if err != nil {
			t.Errorf("failed to find %v: %v", path, err)
			continue
		}
		if cmd.Name() != path[len(path)-1] {
			t.Errorf("expected %v to resolve, got %q", path, cmd.Name())
		}
	}
}
