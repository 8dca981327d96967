package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// durationTolerance is how far a declared duration may drift from the audio file.
const durationTolerance = time.Second

// ProbeResult is the outcome of measuring one song's audio file.
type ProbeResult struct {
	SongID   domain.SongID
	Title    string
	Path     string
	Declared time.Duration
	Measured time.Duration
	Err      error
}

// Mismatch reports whether the declared duration disagrees with the file.
func (r ProbeResult) Mismatch() bool {
	if r.Err != nil || r.Declared == 0 {
		return false
	}
	diff := r.Declared - r.Measured
	return diff > durationTolerance || diff < -durationTolerance
}

// CatalogProber measures catalog audio files with beep decoders.
type CatalogProber struct {
	mediaDir string
}

// NewCatalogProber creates a new CatalogProber reading files under mediaDir.
func NewCatalogProber(mediaDir string) *CatalogProber {
	return &CatalogProber{mediaDir: mediaDir}
}

// Probe measures every song of the catalog. A failure to read one file is
// reported in its result and does not stop the probe.
func (p *CatalogProber) Probe(ctx context.Context, catalog *domain.Catalog) ([]ProbeResult, error) {
	songs := catalog.Songs()
	results := make([]ProbeResult, 0, len(songs))

	for _, song := range songs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := ProbeResult{SongID: song.ID, Title: song.Title, Declared: song.Duration}
		result.Path, result.Err = MediaPath(p.mediaDir, song.AudioURL)
		if result.Err == nil {
			result.Measured, result.Err = MeasureAudio(result.Path)
		}
		results = append(results, result)
	}

	return results, nil
}

// MeasureAudio decodes the header of a WAV or MP3 file and returns its length.
func MeasureAudio(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}

	streamer, format, err := decodeAudio(f, path)
	if err != nil {
		f.Close()
		return 0, err
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}

// decodeAudio picks a decoder by file extension. The returned streamer owns f.
func decodeAudio(f *os.File, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err := wav.Decode(f)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("failed to decode wav: %w", err)
		}
		return streamer, format, nil
	case ".mp3":
		streamer, format, err := mp3.Decode(f)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("failed to decode mp3: %w", err)
		}
		return streamer, format, nil
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", ext)
	}
}

// ApplyMeasuredDurations fills in songs declared with a zero duration.
func ApplyMeasuredDurations(catalog *domain.Catalog, results []ProbeResult) (*domain.Catalog, error) {
	measured := make(map[domain.SongID]time.Duration, len(results))
	for _, r := range results {
		if r.Err == nil && r.Measured > 0 {
			measured[r.SongID] = r.Measured
		}
	}

	songs := catalog.Songs()
	for i, song := range songs {
		if d, ok := measured[song.ID]; ok && song.Duration == 0 {
			songs[i].Duration = d.Round(time.Second)
		}
	}

	return domain.NewCatalog(songs)
}
