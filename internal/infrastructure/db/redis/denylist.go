package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked token ids. Entries expire together with the token
// they name, so the set never outgrows the live token population.
// Key format: revoked:<jti>
type Denylist struct {
	client *redis.Client
	now    func() time.Time
}

// NewDenylist creates a Denylist wrapping the given Redis client.
func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client, now: time.Now}
}

// Revoke marks tokenID as revoked until the given time. Tokens that already
// expired need no entry.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := remaining(d.now(), until)
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist check: %w", err)
	}
	return n > 0, nil
}

// Consume records tokenID with SET NX so exactly one caller wins. An already
// expired token has nothing to record and is reported as won; callers verify
// expiry before getting here.
func (d *Denylist) Consume(ctx context.Context, tokenID string, until time.Time) (bool, error) {
	ttl := remaining(d.now(), until)
	if tokenID == "" || ttl <= 0 {
		return true, nil
	}
	won, err := d.client.SetNX(ctx, key(tokenID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("consume token: %w", err)
	}
	return won, nil
}

func key(tokenID string) string {
	return "revoked:" + tokenID
}

// remaining rounds up to whole seconds so an entry never expires before the
// token does.
func remaining(now, until time.Time) time.Duration {
	ttl := until.Sub(now)
	if ttl <= 0 {
		return 0
	}
	return ttl.Truncate(time.Second) + time.Second
}
