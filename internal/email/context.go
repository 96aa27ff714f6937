// internal/email/context.go
package email

import (
	"context"
	"time"
)

// newEmailContext keeps the parent's values but not its cancellation, so a
// request that has already returned does not abort the send.
func newEmailContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
