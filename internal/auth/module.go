package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/auth/inbound"
	"github.com/shandysiswandi/authcore/internal/auth/outbound/cache"
	"github.com/shandysiswandi/authcore/internal/auth/outbound/db"
	"github.com/shandysiswandi/authcore/internal/auth/outbound/memory"
	"github.com/shandysiswandi/authcore/internal/auth/outbound/mq"
	"github.com/shandysiswandi/authcore/internal/auth/usecase"
	"github.com/shandysiswandi/authcore/internal/pkg/clock"
	"github.com/shandysiswandi/authcore/internal/pkg/config"
	"github.com/shandysiswandi/authcore/internal/pkg/goroutine"
	"github.com/shandysiswandi/authcore/internal/pkg/hash"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"github.com/shandysiswandi/authcore/internal/pkg/jwt"
	"github.com/shandysiswandi/authcore/internal/pkg/messaging"
	"github.com/shandysiswandi/authcore/internal/pkg/otp"
	"github.com/shandysiswandi/authcore/internal/pkg/router"
	"github.com/shandysiswandi/authcore/internal/pkg/uid"
	"github.com/shandysiswandi/authcore/internal/pkg/validator"
)

const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              // required by the postgres drivers
	CacheConn  redis.Cmdable              // required by the redis revocation driver
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	OTP        otp.Generator              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	var dbAuth *db.DB
	if dep.DBConn != nil {
		dbAuth = db.NewDB(dep.DBConn, dep.Instrument)
	}

	revocations, err := revocationStore(dep, dbAuth)
	if err != nil {
		return err
	}

	challenges, err := challengeStore(dep, dbAuth)
	if err != nil {
		return err
	}

	var identities identityStore = memory.NewIdentities()
	if dbAuth != nil {
		identities = dbAuth
	}

	cfg := NewConfig(dep.Config)
	uc := usecase.New(usecase.Dependency{
		Config:         cfg,
		RepoRevocation: revocations,
		RepoChallenge:  challenges,
		RepoIdentity:   identities,
		RepoPassword:   identities,
		RepoMessaging:  mq.NewMessaging(dep.Messaging, dep.Instrument),
		Validator:      dep.Validator,
		HMAC:           dep.HMAC,
		Bcrypt:         dep.Bcrypt,
		OTP:            dep.OTP,
		UID:            dep.UID,
		Clock:          dep.Clock,
		JWT:            dep.JWT,
		Instrument:     dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	interval := durationOr(dep.Config, "modules.auth.purge.interval_seconds", time.Second, time.Hour)
	if interval > 0 {
		inbound.RegisterPurgeWorker(dep.Ctx, dep.Goroutine, uc, interval)
	}

	slog.Info("auth module ready",
		"revocation_driver", driver(dep.Config, "modules.auth.revocation.driver"),
		"challenge_driver", driver(dep.Config, "modules.auth.challenge.driver"),
		"purge_interval", interval.String(),
	)

	return nil
}

// NewConfig reads the auth tunables, falling back to the documented defaults
// for keys that are not set.
func NewConfig(c config.Config) usecase.Config {
	d := usecase.DefaultConfig()
	return usecase.Config{
		AccessTokenTTL:     durationOr(c, "jwt.ttl_minutes", time.Minute, d.AccessTokenTTL),
		RefreshWindow:      durationOr(c, "jwt.refresh_ttl_minutes", time.Minute, d.RefreshWindow),
		ResetTokenTTL:      durationOr(c, "modules.auth.reset_token.ttl_seconds", time.Second, d.ResetTokenTTL),
		OtpExpiry:          durationOr(c, "modules.auth.otp.expiry_minutes", time.Minute, d.OtpExpiry),
		OtpMaxAttempts:     intOr(c, "modules.auth.otp.max_attempts", d.OtpMaxAttempts),
		OtpResendCooldown:  durationOr(c, "modules.auth.otp.resend_cooldown_seconds", time.Second, d.OtpResendCooldown),
		ChallengeRetention: durationOr(c, "modules.auth.purge.challenge_retention_hours", time.Hour, d.ChallengeRetention),
	}
}

type identityStore interface {
	GetIdentityByEmail(ctx context.Context, email string) (*entity.Identity, error)
	UpdatePassword(ctx context.Context, userID int64, email, passwordHash string) error
}

type revocations interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	PurgeExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}

func revocationStore(dep Dependency, dbAuth *db.DB) (revocations, error) {
	switch d := driver(dep.Config, "modules.auth.revocation.driver"); d {
	case DriverPostgres:
		if dbAuth == nil {
			return nil, fmt.Errorf("auth: revocation driver %q needs a database connection", d)
		}
		return dbAuth, nil
	case DriverRedis:
		if dep.CacheConn == nil {
			return nil, fmt.Errorf("auth: revocation driver %q needs a redis connection", d)
		}
		return cache.NewCache(dep.CacheConn, dep.Instrument), nil
	case DriverMemory:
		return memory.NewRevocations(), nil
	default:
		return nil, fmt.Errorf("auth: unknown revocation driver %q", d)
	}
}

type challenges interface {
	GetActiveChallenge(ctx context.Context, email string, purpose entity.OtpPurpose) (*entity.OtpChallenge, error)
	ReplaceChallenge(ctx context.Context, superseded *entity.OtpChallenge, next entity.OtpChallenge) error
	SaveChallenge(ctx context.Context, c entity.OtpChallenge, seenAttempts int) error
	PurgeConsumedChallenges(ctx context.Context, before time.Time) (int64, error)
}

func challengeStore(dep Dependency, dbAuth *db.DB) (challenges, error) {
	switch d := driver(dep.Config, "modules.auth.challenge.driver"); d {
	case DriverPostgres:
		if dbAuth == nil {
			return nil, fmt.Errorf("auth: challenge driver %q needs a database connection", d)
		}
		return dbAuth, nil
	case DriverMemory:
		return memory.NewChallenges(), nil
	default:
		return nil, fmt.Errorf("auth: unknown challenge driver %q", d)
	}
}

func driver(c config.Config, key string) string {
	if d := c.GetString(key); d != "" {
		return d
	}
	return DriverPostgres
}

func durationOr(c config.Config, key string, unit, def time.Duration) time.Duration {
	if !c.IsSet(key) {
		return def
	}
	return time.Duration(c.GetInt64(key)) * unit
}

func intOr(c config.Config, key string, def int) int {
	if !c.IsSet(key) {
		return def
	}
	return c.GetInt(key)
}
