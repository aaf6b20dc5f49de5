// Package translate turns decoded Telegram messages into Discord delivery
// payloads: display identity, markup escaping, and content classification.
package translate

import "sync"

// UserInfo is one cached sender identity.
type UserInfo struct {
	UserID    int64
	FirstName string
	LastName  string
	Username  string
	AvatarURL string
}

// DisplayName builds the spoofed display name: the first name alone, or
// "first last" when a last name is present. No other fallback is
// substituted.
func DisplayName(u UserInfo) string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserCache holds sender identities keyed by user id. Entries are populated
// lazily on first message from a sender and never evicted; unbounded growth
// is an accepted tradeoff at this scale.
type UserCache struct {
	mu    sync.RWMutex
	users map[int64]UserInfo
}

// NewUserCache creates an empty cache.
func NewUserCache() *UserCache {
	return &UserCache{users: make(map[int64]UserInfo)}
}

// Get returns the cached identity for a user, if present.
func (c *UserCache) Get(userID int64) (UserInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[userID]
	return u, ok
}

// Put stores or replaces a user's identity.
func (c *UserCache) Put(u UserInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[u.UserID] = u
}

// Len returns the number of cached identities.
func (c *UserCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}
