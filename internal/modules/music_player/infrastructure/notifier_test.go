package infrastructure

import (
	"testing"

	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
)

func TestNowPlayingEmbed(t *testing.T) {
	tests := []struct {
		name        string
		info        ports.NowPlayingInfo
		wantHeading string
		wantFields  int
		wantThumb   bool
		wantFooter  bool
	}{
		{
			name: "full",
			info: ports.NowPlayingInfo{
				Title:       "Lenny",
				Artist:      "Bradwell",
				Album:       "I've left my friends",
				Duration:    "4:05",
				CoverURL:    "https://example.com/covers/a.jpg",
				Color:       0x6750A4,
				QueueLength: 2,
				HostName:    "host",
			},
			wantHeading: "Now Playing",
			wantFields:  4,
			wantThumb:   true,
			wantFooter:  true,
		},
		{
			name:        "preview without extras",
			info:        ports.NowPlayingInfo{Title: "Lenny", Artist: "Bradwell", Duration: "0:30", IsPreview: true},
			wantHeading: "Now Previewing",
			wantFields:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed := NowPlayingEmbed(&tt.info)

			if embed.Author == nil || embed.Author.Name != tt.wantHeading {
				t.Errorf("expected heading %q, got %+v", tt.wantHeading, embed.Author)
			}
			if embed.Title != tt.info.Title {
				t.Errorf("expected title %q, got %q", tt.info.Title, embed.Title)
			}
			if embed.Color != tt.info.Color {
				t.Errorf("expected color %x, got %x", tt.info.Color, embed.Color)
			}
			if len(embed.Fields) != tt.wantFields {
				t.Errorf("expected %d fields, got %d", tt.wantFields, len(embed.Fields))
			}
			if (embed.Thumbnail != nil) != tt.wantThumb {
				t.Errorf("thumbnail = %+v, want present=%v", embed.Thumbnail, tt.wantThumb)
			}
			if (embed.Footer != nil) != tt.wantFooter {
				t.Errorf("footer = %+v, want present=%v", embed.Footer, tt.wantFooter)
			}
		})
	}
}
