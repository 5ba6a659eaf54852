// Package session persists the provider's bearer token pair and hands out
// access tokens to the API client, refreshing them against the remote
// token endpoint.
package session

import (
	"context"
	"errors"
)

var (
	// ErrNoSession is returned by a Store when nothing has been persisted.
	ErrNoSession = errors.New("no stored session")
	// ErrUnauthenticated means the caller must log in again.
	ErrUnauthenticated = errors.New("session is not authenticated")
)

// Session is the single blob kept under the session key.
type Session struct {
	Access  string         `json:"access"`
	Refresh string         `json:"refresh"`
	User    map[string]any `json:"user,omitempty"`
}

// Store is the persistence contract for the session blob.
type Store interface {
	Get(ctx context.Context) (*Session, error)
	Set(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}
