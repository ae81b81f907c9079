// Package storage is the durable local mirror of session state, the
// equivalent of the browser's localStorage. Only one process is assumed to
// touch it at a time.
package storage

import "errors"

// Keys used by the session layer.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// ErrNotFound indicates a key has no stored value.
var ErrNotFound = errors.New("storage: not found")

// Store is a small durable key/value surface.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Clear() error
}
