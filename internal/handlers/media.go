package handlers

import (
	"context"
	"net/url"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/desktop"
	"github.com/nadzzz/deskpilot/internal/registry"
)

func (h *handlers) registerMedia(b *registry.Builder) {
	b.Handle(command.PlayMusic, registry.Typed(h.playMusic)).
		Handle(command.MusicPlay, h.mediaKey(desktop.KeyPlayPause, "Playback resumed")).
		Handle(command.MusicPause, h.mediaKey(desktop.KeyPlayPause, "Playback paused")).
		Handle(command.MusicNext, h.mediaKey(desktop.KeyNext, "Next track")).
		Handle(command.MusicPrevious, h.mediaKey(desktop.KeyPrevious, "Previous track"))
}

// playMusic hands a Spotify search URI to the desktop, which opens the
// Spotify client on the results.
func (h *handlers) playMusic(ctx context.Context, p queryParams) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	uri := "spotify:search:" + url.PathEscape(p.Query)
	if err := h.Desktop.OpenURL(ctx, uri); err != nil {
		return nil, err
	}
	return command.OK("Playing %s on Spotify", p.Query).With("uri", uri), nil
}
