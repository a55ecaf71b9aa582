package capability

import "time"

// Settings are the host-runtime defaults a Builder is seeded with.
type Settings struct {
	// InvokeTimeout bounds a single command invocation.
	InvokeTimeout time.Duration
	// InvokeRate is the sustained number of invocations per second a
	// single connection may issue.
	InvokeRate float64
	// InvokeBurst is the burst allowance on top of InvokeRate.
	InvokeBurst int
}

// DefaultSettings returns the settings used when nothing overrides them.
func DefaultSettings() Settings {
	return Settings{
		InvokeTimeout: 30 * time.Second,
		InvokeRate:    50,
		InvokeBurst:   100,
	}
}
