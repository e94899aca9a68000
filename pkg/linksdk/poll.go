package linksdk

import (
	"context"
	"time"
)

// DefaultPollInterval is how often PollUntilDone asks for status when no
// interval is given. Matches the lenient server-side rate limit.
const DefaultPollInterval = time.Second

// PollUntilDone polls the handshake until it resolves (success, rejected or
// expired) and returns the final status. Cancel or deadline the context to
// bound the wait; the desktop flow typically uses a deadline slightly past
// the handshake's ExpiresAt.
//
// The token on a success status is only returned once per poll response; the
// caller should hand it straight to the session bootstrap.
func (c *Client) PollUntilDone(ctx context.Context, id string, interval time.Duration) (*HandshakeStatus, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.Status(ctx, id)
		if err != nil {
			return nil, err
		}
		if status.Resolved() {
			return status, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
