package clubauth

import (
	"errors"
	"time"

	"github.com/ridersclub/clubauth/guard"
)

// Config defines the engine's tunables. Configure before Build and
// treat as immutable afterwards.
type Config struct {
	Flow     FlowConfig
	Password PasswordConfig
	Storage  StorageConfig
	Guard    guard.Config
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
FLOW CONFIG
====================================
*/

// FlowConfig tunes the multi-step credential flows.
type FlowConfig struct {
	// OTPDigits is the exact code length enforced locally before any
	// network call.
	OTPDigits int
	// ResendCooldown is the local minimum interval between resend
	// requests for one flow. The service enforces its own limit; this
	// only avoids a round trip that is certain to be rejected.
	ResendCooldown time.Duration
	// DefaultPostLoginPath is where a login without a pending
	// NavigationIntent redirects to.
	DefaultPostLoginPath string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig is the locally enforced password policy. The service
// applies its own policy on top.
type PasswordConfig struct {
	MinLength int
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig controls durable token persistence.
type StorageConfig struct {
	// Key is the fixed storage key the session record lives under.
	Key string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is
	// full; drops are counted and visible via [Engine.AuditDropped].
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool

	// EnableLatencyHistograms adds a bucketed histogram of identity
	// service round-trip times on top of the plain counters.
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration the club site runs with.
func DefaultConfig() Config {
	return Config{
		Flow: FlowConfig{
			OTPDigits:            6,
			ResendCooldown:       30 * time.Second,
			DefaultPostLoginPath: "/",
		},
		Password: PasswordConfig{
			MinLength: 6,
		},
		Storage: StorageConfig{
			Key: "clubauth:session",
		},
		Guard: guard.DefaultConfig(),
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Flow.OTPDigits <= 0 {
		return errors.New("Flow.OTPDigits must be positive")
	}
	if c.Flow.ResendCooldown < 0 {
		return errors.New("Flow.ResendCooldown must not be negative")
	}
	if c.Password.MinLength <= 0 {
		return errors.New("Password.MinLength must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit.BufferSize must not be negative")
	}
	if c.Guard.LoginPath == "" {
		return errors.New("Guard.LoginPath must be set")
	}
	if c.Guard.HomePath == "" {
		return errors.New("Guard.HomePath must be set")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Guard.ProtectedPrefixes = append([]string(nil), cfg.Guard.ProtectedPrefixes...)
	out.Guard.GuestOnlyPaths = append([]string(nil), cfg.Guard.GuestOnlyPaths...)
	return out
}
