package clubauth

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/ridersclub/clubauth/guard"
	"github.com/ridersclub/clubauth/identity"
	"github.com/ridersclub/clubauth/session"
)

// Builder assembles an Engine and its session store, guard, and audit
// pipeline. A builder is single use.
type Builder struct {
	config Config

	identityClient identity.Client
	redis          *redis.Client
	storage        session.TokenStorage
	auditSink      AuditSink

	built bool
}

// New starts a builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The config is copied;
// later mutation of cfg does not affect the builder.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithIdentityClient sets the Identity Service client. Required.
func (b *Builder) WithIdentityClient(c identity.Client) *Builder {
	b.identityClient = c
	return b
}

// WithRedis sets the redis client backing durable session storage.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithTokenStorage overrides session storage with a custom
// implementation, replacing the redis default.
func (b *Builder) WithTokenStorage(storage session.TokenStorage) *Builder {
	b.storage = storage
	return b
}

// WithAuditSink sets the destination for audit events. Without one,
// events go to a NoOpSink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the identity latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. Either a
// redis client or a TokenStorage must be provided; with both, the
// explicit storage wins.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.identityClient == nil {
		return nil, errors.New("identity client required")
	}

	storage := b.storage
	if storage == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or token storage required")
		}
		storage = session.NewRedisStorage(b.redis, cfg.Storage.Key)
	}

	sessions := session.NewStore(storage)
	intents := guard.NewIntentStore()
	guardian := guard.New(cfg.Guard, sessions, intents)

	e := &Engine{
		config:   cfg,
		identity: b.identityClient,
		sessions: sessions,
		guardian: guardian,
		intents:  intents,
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
	}

	b.built = true
	return e, nil
}
