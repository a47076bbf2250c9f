package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// HTTPClient returns a client that asks the session for a token on every
// request. There is no caching layer between the transport and the session.
func (s *Session) HTTPClient() *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: s,
			Base:   http.DefaultTransport,
		},
	}
}

// DriveService returns an authenticated Drive service bound to the session.
// Build it once; credential changes flow through the session.
func (s *Session) DriveService(ctx context.Context, opts ...option.ClientOption) (*drive.Service, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(s.HTTPClient())}, opts...)

	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}
	return srv, nil
}
