package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scopewatch/api/pkg/domain/shared"
)

// ChecksumCache keeps the last seen scope checksum per program so the
// monitor can skip the database round trip when a freshly fetched scope
// is bytewise unchanged. A cache miss is never an error; the snapshot
// comparison against the persisted history remains authoritative.
type ChecksumCache struct {
	client *Client
	ttl    time.Duration
}

// NewChecksumCache creates a checksum cache with the given entry TTL.
func NewChecksumCache(client *Client, ttl time.Duration) *ChecksumCache {
	return &ChecksumCache{
		client: client,
		ttl:    ttl,
	}
}

func checksumKey(programID shared.ID) string {
	return fmt.Sprintf("scope:checksum:%s", programID.String())
}

// Get returns the cached checksum for the program, or "" on a miss.
func (c *ChecksumCache) Get(ctx context.Context, programID shared.ID) (string, error) {
	val, err := c.client.Raw().Get(ctx, checksumKey(programID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("get scope checksum: %w", err)
	}
	return val, nil
}

// Set stores the checksum for the program.
func (c *ChecksumCache) Set(ctx context.Context, programID shared.ID, checksum string) error {
	if err := c.client.Raw().Set(ctx, checksumKey(programID), checksum, c.ttl).Err(); err != nil {
		return fmt.Errorf("set scope checksum: %w", err)
	}
	return nil
}

// Invalidate removes the cached checksum for the program.
func (c *ChecksumCache) Invalidate(ctx context.Context, programID shared.ID) error {
	if err := c.client.Raw().Del(ctx, checksumKey(programID)).Err(); err != nil {
		return fmt.Errorf("invalidate scope checksum: %w", err)
	}
	return nil
}
