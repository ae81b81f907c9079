// Package ids mints the correlation ids the API client stamps onto outgoing
// requests.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a lexicographically sortable identifier. Backend request logs
// sort by it, so the timestamp prefix matters; the entropy half comes from
// crypto/rand since ids from separate CLI invocations must not collide.
func New() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
