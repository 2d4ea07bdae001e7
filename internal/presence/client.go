// Package presence reads a user's Discord presence from a
// Lanyard-compatible API and reports what they are listening to, as an
// alternative activity source to Last.fm.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public Lanyard API endpoint.
const DefaultBaseURL = "https://api.lanyard.rest/v1/users/"

// ErrNoActivity is returned when the user is not listening to anything.
var ErrNoActivity = errors.New("presence: no listening activity")

// Listening describes the track a user is currently listening to.
type Listening struct {
	Title  string
	Artist string
	Album  string
	ArtURL string

	// Raw is the untouched JSON of the spotify activity record, for
	// callers that pass it through verbatim.
	Raw json.RawMessage
}

// Client fetches presence documents over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// NewClient creates a presence client against baseURL (the public
// Lanyard endpoint if empty) with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger.With().Str("component", "presence").Logger(),
	}
}

type wireResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ListeningToSpotify bool            `json:"listening_to_spotify"`
		Spotify            json.RawMessage `json:"spotify"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type wireSpotify struct {
	Song        string `json:"song"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	AlbumArtURL string `json:"album_art_url"`
}

// Get fetches the presence document for a Discord user ID and returns
// the track they are listening to. Returns ErrNoActivity when nothing
// is playing; the request is made once and never retried.
func (c *Client) Get(ctx context.Context, userID string) (*Listening, error) {
	if userID == "" {
		return nil, fmt.Errorf("presence: user ID is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+userID, nil)
	if err != nil {
		return nil, fmt.Errorf("presence: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("presence: request failed: %w", err)
	}
	defer resp.Body.Close()

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("presence: failed to parse response: %w", err)
	}

	if !wire.Success {
		if wire.Error != nil {
			return nil, fmt.Errorf("presence: %s", wire.Error.Message)
		}
		return nil, fmt.Errorf("presence: unexpected status %d", resp.StatusCode)
	}

	if !wire.Data.ListeningToSpotify || len(wire.Data.Spotify) == 0 {
		return nil, ErrNoActivity
	}

	var spotify wireSpotify
	if err := json.Unmarshal(wire.Data.Spotify, &spotify); err != nil {
		return nil, fmt.Errorf("presence: failed to parse activity: %w", err)
	}

	c.logger.Debug().Str("user", userID).Str("song", spotify.Song).Msg("Presence fetched")
	return &Listening{
		Title:  spotify.Song,
		Artist: spotify.Artist,
		Album:  spotify.Album,
		ArtURL: spotify.AlbumArtURL,
		Raw:    wire.Data.Spotify,
	}, nil
}
