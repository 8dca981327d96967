package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sglre6355/portfolio/internal/modules/music_player"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
	"github.com/sglre6355/portfolio/internal/modules/music_player/infrastructure"
)

type playParams struct {
	song    string
	shuffle bool
	loop    bool
	volume  float64
}

func playCmd() *cobra.Command {
	params := playParams{}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the catalog on the local speaker until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlay(cmd.Context(), params)
		},
	}
	cmd.Flags().StringVar(&params.song, "song", "", "song ID to start with (default: first catalog song)")
	cmd.Flags().BoolVar(&params.shuffle, "shuffle", false, "advance through the catalog in random order")
	cmd.Flags().BoolVar(&params.loop, "loop", false, "repeat the starting song")
	cmd.Flags().Float64Var(&params.volume, "volume", domain.DefaultVolume, "output volume between 0 and 1")

	return cmd
}

func runPlay(ctx context.Context, params playParams) error {
	if _, err := setup(); err != nil {
		return err
	}

	cfg, err := music_player.ParseConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	player, err := music_player.NewPlayer(ctx, cfg)
	if err != nil {
		return err
	}
	defer player.Close()

	if player.Catalog.IsEmpty() {
		return usecases.ErrNoResults
	}
	if !infrastructure.SpeakerAvailable {
		slog.Warn("no audio output in this build, playing on a simulated clock")
	}

	element, err := infrastructure.NewSpeakerElement(cfg.MediaDir)
	if err != nil {
		return err
	}
	defer element.Close()

	player.Bus.OnStateChanged(func(_ context.Context, event domain.StateChangedEvent) {
		if !event.Change.Has(domain.ChangeSong) || event.Snapshot.CurrentSong == nil {
			return
		}
		song := event.Snapshot.CurrentSong
		fmt.Printf("♪ %s · %s (%s)\n", song.Title, song.Album, song.FormattedDuration())
	})
	player.Bus.OnPlaybackFailed(func(_ context.Context, event domain.PlaybackFailedEvent) {
		slog.Error("failed to play song", "session", event.SessionID, "error", event.Message)
	})

	opened, err := player.Sessions.Open(ctx, usecases.OpenSessionInput{Element: element})
	if err != nil {
		return err
	}
	sessionID := opened.SessionID
	defer func() {
		if err := player.Sessions.Close(context.WithoutCancel(ctx), sessionID); err != nil {
			slog.Warn("failed to close session", "session", sessionID, "error", err)
		}
	}()

	if err := configureKiosk(ctx, player, sessionID, params); err != nil {
		return err
	}

	first := params.song
	if first == "" {
		song, _ := player.Catalog.At(0)
		first = string(song.ID)
	}
	if _, err := player.Playback.SelectSong(ctx, usecases.SelectSongInput{
		SessionID: sessionID,
		SongID:    domain.SongID(first),
	}); err != nil {
		return fmt.Errorf("failed to start %q: %w", first, err)
	}

	<-ctx.Done()
	slog.Info("received termination signal, stopping playback")

	return nil
}

func configureKiosk(
	ctx context.Context,
	player *music_player.Player,
	sessionID domain.SessionID,
	params playParams,
) error {
	if _, err := player.Settings.SetVolume(ctx, usecases.SetVolumeInput{
		SessionID: sessionID,
		Volume:    params.volume,
	}); err != nil {
		return err
	}
	if params.shuffle {
		if _, err := player.Settings.ToggleShuffle(ctx, sessionID); err != nil {
			return err
		}
	}
	if params.loop {
		if _, err := player.Settings.ToggleLoop(ctx, sessionID); err != nil {
			return err
		}
	}
	return nil
}
