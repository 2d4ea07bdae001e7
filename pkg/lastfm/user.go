package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
)

// UserService provides read-only user data operations.
type UserService struct {
	client *Client
}

// RecentTracks is the parsed user.getrecenttracks payload.
type RecentTracks struct {
	Tracks []RecentTrack
}

// RecentTrack is a single entry in a user's listening history. The first
// entry is the currently playing track when NowPlaying is true, or the
// most recently played one otherwise.
type RecentTrack struct {
	Name       string
	URL        string
	Artist     string
	Album      string
	Images     []Image
	Date       string // human-readable play time; empty while playing
	NowPlaying bool

	// Raw is the untouched JSON of this track record as Last.fm sent it,
	// for callers that need to pass it through verbatim.
	Raw json.RawMessage
}

// Image is one size variant of a track's cover art. Last.fm returns four
// sizes, smallest first.
type Image struct {
	Size string `json:"size"`
	URL  string `json:"#text"`
}

// ImageURL returns the cover URL at the given size index, or the empty
// string if that size is not present.
func (t *RecentTrack) ImageURL(idx int) string {
	if idx < 0 || idx >= len(t.Images) {
		return ""
	}
	return t.Images[idx].URL
}

// wireText matches Last.fm's {"#text": ...} string wrapper.
type wireText struct {
	Text string `json:"#text"`
}

type wireTrack struct {
	Name   string    `json:"name"`
	URL    string    `json:"url"`
	Artist wireText  `json:"artist"`
	Album  wireText  `json:"album"`
	Image  []Image   `json:"image"`
	Date   *wireText `json:"date"`
	Attr   *struct {
		NowPlaying string `json:"nowplaying"`
	} `json:"@attr"`
}

type wireRecentTracks struct {
	RecentTracks struct {
		Track trackList `json:"track"`
	} `json:"recenttracks"`
}

// trackList tolerates Last.fm returning either an array of track records
// or a single bare record.
type trackList []json.RawMessage

func (l *trackList) UnmarshalJSON(data []byte) error {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var single json.RawMessage
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = trackList{single}
	return nil
}

// GetRecentTracks fetches a user's listening history via
// user.getrecenttracks.
//
// The request is made once; failures are returned to the caller
// unretried. API-level failures (unknown user, bad key) come back as
// *Error.
func (u *UserService) GetRecentTracks(ctx context.Context, username string) (*RecentTracks, error) {
	if username == "" {
		return nil, fmt.Errorf("lastfm: username is required")
	}

	body, err := u.client.get(ctx, "user.getrecenttracks", map[string]string{
		"user": username,
	})
	if err != nil {
		return nil, err
	}

	var wire wireRecentTracks
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	recent := &RecentTracks{
		Tracks: make([]RecentTrack, 0, len(wire.RecentTracks.Track)),
	}
	for _, raw := range wire.RecentTracks.Track {
		var wt wireTrack
		if err := json.Unmarshal(raw, &wt); err != nil {
			return nil, fmt.Errorf("failed to parse track record: %w", err)
		}

		track := RecentTrack{
			Name:   wt.Name,
			URL:    wt.URL,
			Artist: wt.Artist.Text,
			Album:  wt.Album.Text,
			Images: wt.Image,
			Raw:    raw,
		}
		if wt.Date != nil {
			track.Date = wt.Date.Text
		}
		if wt.Attr != nil && wt.Attr.NowPlaying == "true" {
			track.NowPlaying = true
		}
		recent.Tracks = append(recent.Tracks, track)
	}

	return recent, nil
}
