package cache

import "time"

// SetNowFuncForTest overrides the clock used for expiry checks.
func (c *MemoryCache) SetNowFuncForTest(fn func() time.Time) {
	c.nowFn = fn
}
