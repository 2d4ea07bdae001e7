package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/keiradan/trackcard/internal/presence"
	"github.com/keiradan/trackcard/pkg/lastfm"
)

// Track is the provider-neutral view of a user's current or most recent
// play. It lives for the duration of one request.
type Track struct {
	Title    string
	Artist   string
	Album    string
	CoverURL string // medium-size cover, used for the card and HTML modes
	ProxyURL string // largest cover, used for cover proxy mode
	PlayedAt string // human-readable play time; empty while playing

	IsPlaying bool

	// Raw is the provider's untouched track record, returned verbatim
	// in JSON mode.
	Raw json.RawMessage
}

// ActivityClient returns the current or most recent track for a user.
// Implementations make a single attempt; the handler maps failures
// straight to the response.
type ActivityClient interface {
	RecentTrack(ctx context.Context, username string) (*Track, error)
}

type lastfmActivity struct {
	client *lastfm.Client
}

// NewLastFMActivity adapts a Last.fm client to the ActivityClient
// interface.
func NewLastFMActivity(client *lastfm.Client) ActivityClient {
	return &lastfmActivity{client: client}
}

func (a *lastfmActivity) RecentTrack(ctx context.Context, username string) (*Track, error) {
	recent, err := a.client.User().GetRecentTracks(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(recent.Tracks) == 0 {
		return nil, fmt.Errorf("no recent tracks for %s", username)
	}

	t := recent.Tracks[0]
	return &Track{
		Title:     t.Name,
		Artist:    t.Artist,
		Album:     t.Album,
		CoverURL:  t.ImageURL(2),
		ProxyURL:  t.ImageURL(3),
		PlayedAt:  t.Date,
		IsPlaying: t.NowPlaying,
		Raw:       t.Raw,
	}, nil
}

type presenceActivity struct {
	client *presence.Client
}

// NewPresenceActivity adapts a Discord presence client to the
// ActivityClient interface. Presence only reports active listening, so
// the returned track is always playing.
func NewPresenceActivity(client *presence.Client) ActivityClient {
	return &presenceActivity{client: client}
}

func (a *presenceActivity) RecentTrack(ctx context.Context, username string) (*Track, error) {
	l, err := a.client.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	return &Track{
		Title:     l.Title,
		Artist:    l.Artist,
		Album:     l.Album,
		CoverURL:  l.ArtURL,
		ProxyURL:  l.ArtURL,
		IsPlaying: true,
		Raw:       l.Raw,
	}, nil
}
