// Package source implements the per-platform content checkers.
//
// Each checker fetches the newest item from its platform, compares its
// identifier against the shared cache, and announces new items through the
// notifier. A checker only updates its cache entry after the notification
// was delivered, so a failed delivery is re-attempted on the next run.
package source

import (
	"context"
	"time"

	"social_monitor/internal/notify"
)

// Checker is one monitored external platform.
type Checker interface {
	Name() string

	// Check reports whether a new item was found and announced. Internal
	// failures are contained: they are logged and reported as (false, nil).
	Check(ctx context.Context) (bool, error)
}

// Notifier delivers chat notifications.
type Notifier interface {
	Send(ctx context.Context, msg notify.Message) error
}

// Getter performs outbound GET requests.
type Getter interface {
	Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) ([]byte, error)
}

// truncate shortens s to at most n characters, appending an ellipsis
// marker when anything was cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
