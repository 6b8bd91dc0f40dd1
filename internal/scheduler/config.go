package scheduler

import "time"

// Config controls the scheduled sync loop.
type Config struct {
	Interval time.Duration
	LockTTL  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval: 4 * time.Hour,
		LockTTL:  15 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
