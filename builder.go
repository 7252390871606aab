package aquamate

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/FrozenOJuice/AquaMate/internal"
	"github.com/FrozenOJuice/AquaMate/internal/rate"
	"github.com/FrozenOJuice/AquaMate/internal/stores"
	"github.com/FrozenOJuice/AquaMate/internal/velocity"
	"github.com/FrozenOJuice/AquaMate/password"
	"github.com/FrozenOJuice/AquaMate/session"
)

// Builder assembles an [Engine]. Configure it during initialization and
// call [Builder.Build] exactly once; a Builder is not safe for concurrent
// use and is spent after a successful Build.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userProvider UserProvider
	emailSender  Sender
	smsSender    Sender
	auditSink    AuditSink
	logger       *zap.Logger

	passwordValidator func(string) error

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing sessions, reset tokens, rate
// limits, and velocity tracking. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider sets the account backend. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithEmailSender sets the delivery channel for reset tokens sent to
// email contacts. Without one, email dispatches are logged and dropped.
func (b *Builder) WithEmailSender(s Sender) *Builder {
	b.emailSender = s
	return b
}

// WithSMSSender sets the delivery channel for reset tokens sent to
// phone contacts.
func (b *Builder) WithSMSSender(s Sender) *Builder {
	b.smsSender = s
	return b
}

// WithAuditSink sets where audit events land. Without one, events are
// discarded.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithPasswordValidator adds an extra check run after the built-in
// strength policy, e.g. a breached-password lookup. A returned error
// rejects the password as a policy violation.
func (b *Builder) WithPasswordValidator(fn func(string) error) *Builder {
	b.passwordValidator = fn
	return b
}

// Build validates the configuration, wires every component, and returns
// a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	// A throwaway hash that login verifies against when the identifier
	// is unknown, keeping the two paths the same cost.
	filler, err := internal.NewToken()
	if err != nil {
		return nil, err
	}
	dummyHash, err := hasher.Hash(filler)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:            cfg,
		users:             b.userProvider,
		hasher:            hasher,
		sessions:          session.NewStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.MaxAge, cfg.Session.SlidingExpiration),
		resets:            stores.NewPasswordResetStore(b.redis, cfg.PasswordReset.RedisPrefix),
		limiter:           rate.New(b.redis, cfg.RateLimit.RedisPrefix),
		velocity:          velocity.New(b.redis, cfg.Anomaly.RedisPrefix, cfg.Anomaly.Window, cfg.Anomaly.Threshold),
		notify:            newNotifier(b.emailSender, b.smsSender, logger),
		audit:             newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:           NewMetrics(cfg.Metrics),
		logger:            logger,
		passwordValidator: b.passwordValidator,
		dummyHash:         dummyHash,
	}

	b.built = true

	return engine, nil
}
