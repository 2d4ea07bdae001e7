// Package lastfm provides a client library for the Last.fm API 2.0.
//
// # Overview
//
// This package implements a Go client for the read-only JSON surface of
// the Last.fm API, focusing on the user data methods the card server
// consumes. It provides a type-safe API with context support and typed
// errors. Requests are single-attempt: the caller decides what a failure
// means, and nothing is retried behind its back.
//
// # Quick Start
//
// Create a client with your API credentials:
//
//	import "github.com/keiradan/trackcard/pkg/lastfm"
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey:    "your-api-key",
//	    APISecret: "your-shared-secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Then fetch a user's listening history:
//
//	recent, err := client.User().GetRecentTracks(ctx, "someuser")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if len(recent.Tracks) > 0 {
//	    t := recent.Tracks[0]
//	    fmt.Printf("%s - %s (playing: %v)\n", t.Artist, t.Name, t.NowPlaying)
//	}
//
// # Error Handling
//
// API-level failures are returned as *Error values carrying the Last.fm
// error code and message:
//
//	var apiErr *lastfm.Error
//	if errors.As(err, &apiErr) && apiErr.Code == lastfm.ErrCodeInvalidParameters {
//	    // unknown user
//	}
//
// Transport failures (network errors, unexpected status codes) are
// returned as plain wrapped errors.
//
// # Testing
//
// Point Config.BaseURL at an httptest.Server to exercise the client
// against canned responses.
package lastfm
