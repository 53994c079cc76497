package weft

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"
)

// FeedID derives the feed's stable identifier from its description: two
// feeds with the same given and steps always share an id, across processes
// and restarts.
func FeedID(f Feed) string {
	sum := sha256.Sum256([]byte(f.Describe()))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// FeedCache holds compiled feeds by id so clients can refer to them in
// bookmark requests without resending the specification.
type FeedCache struct {
	mu    sync.RWMutex
	feeds map[string]Feed
}

func NewFeedCache() *FeedCache {
	return &FeedCache{
		feeds: map[string]Feed{},
	}
}

// Add registers the feed and returns its id. Re-adding an identical feed is
// a no-op with the same id.
func (c *FeedCache) Add(f Feed) string {
	id := FeedID(f)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feeds[id] = f
	return id
}

func (c *FeedCache) Get(id string) (Feed, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.feeds[id]
	return f, ok
}

func (c *FeedCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.feeds)
}
