package rooms

import (
	"time"

	"github.com/vovakirdan/clubroom-server/internal/core"
)

// ExpiryPolicy decides when a live room is swept.
type ExpiryPolicy struct {
	// PresenterGrace is how long a room may stay without a connected presenter.
	PresenterGrace time.Duration
	// Lifetime caps the age of a room. Zero disables the cap.
	Lifetime time.Duration
}

// Expired reports whether room should be disposed at now.
func (p ExpiryPolicy) Expired(room *core.Room, now time.Time) bool {
	if !room.HasPresenter() && now.Sub(room.PresenterLastDisposed()) > p.PresenterGrace {
		return true
	}
	return p.Lifetime > 0 && now.Sub(room.CreatedAt()) > p.Lifetime
}
