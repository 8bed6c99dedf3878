package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/pkg/clock"
	"github.com/shandysiswandi/authcore/internal/pkg/hash"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"github.com/shandysiswandi/authcore/internal/pkg/jwt"
	"github.com/shandysiswandi/authcore/internal/pkg/otp"
	"github.com/shandysiswandi/authcore/internal/pkg/uid"
	"github.com/shandysiswandi/authcore/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Config carries every tunable of the auth core. It is built once at startup.
type Config struct {
	AccessTokenTTL     time.Duration
	RefreshWindow      time.Duration
	ResetTokenTTL      time.Duration
	OtpExpiry          time.Duration
	OtpMaxAttempts     int
	OtpResendCooldown  time.Duration
	ChallengeRetention time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:     60 * time.Minute,
		RefreshWindow:      7 * 24 * time.Hour,
		ResetTokenTTL:      600 * time.Second,
		OtpExpiry:          5 * time.Minute,
		OtpMaxAttempts:     5,
		OtpResendCooldown:  60 * time.Second,
		ChallengeRetention: 168 * time.Hour,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = d.AccessTokenTTL
	}
	if c.RefreshWindow <= 0 {
		c.RefreshWindow = d.RefreshWindow
	}
	if c.ResetTokenTTL <= 0 {
		c.ResetTokenTTL = d.ResetTokenTTL
	}
	if c.OtpExpiry <= 0 {
		c.OtpExpiry = d.OtpExpiry
	}
	if c.OtpMaxAttempts <= 0 {
		c.OtpMaxAttempts = d.OtpMaxAttempts
	}
	if c.OtpResendCooldown < 0 {
		c.OtpResendCooldown = d.OtpResendCooldown
	}
	if c.ChallengeRetention <= 0 {
		c.ChallengeRetention = d.ChallengeRetention
	}
	return c
}

type OtpDispatchEvent struct {
	ChallengeID int64
	Email       string
	Code        string
	Purpose     entity.OtpPurpose
	TTLSeconds  int64
}

// repoMessaging is the email collaborator: it hands the plaintext code to
// whatever delivers it.
type repoMessaging interface {
	PublishOtpDispatch(ctx context.Context, msg OtpDispatchEvent) error
}

type repoRevocation interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// Revoke is idempotent: revoking a known id again is not an error.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	PurgeExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}

type repoChallenge interface {
	// GetActiveChallenge returns goerror.ErrNotFound when none is active.
	GetActiveChallenge(ctx context.Context, email string, purpose entity.OtpPurpose) (*entity.OtpChallenge, error)
	// ReplaceChallenge atomically persists superseded (when not nil) and
	// inserts next.
	ReplaceChallenge(ctx context.Context, superseded *entity.OtpChallenge, next entity.OtpChallenge) error
	// SaveChallenge persists attempts and consumed_at of an unconsumed
	// challenge whose stored attempts still equal seenAttempts. A row changed
	// since the read yields goerror.ErrConflict.
	SaveChallenge(ctx context.Context, c entity.OtpChallenge, seenAttempts int) error
	PurgeConsumedChallenges(ctx context.Context, before time.Time) (int64, error)
}

type repoIdentity interface {
	// GetIdentityByEmail returns goerror.ErrNotFound for an unknown email.
	GetIdentityByEmail(ctx context.Context, email string) (*entity.Identity, error)
}

type repoPassword interface {
	// UpdatePassword matches by userID, then email, and returns
	// goerror.ErrNotFound when neither resolves a user.
	UpdatePassword(ctx context.Context, userID int64, email, passwordHash string) error
}

type Usecase struct {
	cfg           Config
	repoRevoke    repoRevocation
	repoChallenge repoChallenge
	repoIdentity  repoIdentity
	repoPassword  repoPassword
	repoMessaging repoMessaging
	validator     validator.Validator
	hmac          hash.Hash
	bcrypt        hash.Hash
	otp           otp.Generator
	uid           uid.NumberID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation

	otpSent     metric.Int64Counter
	otpVerified metric.Int64Counter
	tokenIssued metric.Int64Counter
}

type Dependency struct {
	Config         Config
	RepoRevocation repoRevocation
	RepoChallenge  repoChallenge
	RepoIdentity   repoIdentity
	RepoPassword   repoPassword
	RepoMessaging  repoMessaging
	Validator      validator.Validator
	HMAC           hash.Hash
	Bcrypt         hash.Hash
	OTP            otp.Generator
	UID            uid.NumberID
	Clock          clock.Clocker
	JWT            jwt.JWT
	Instrument     instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		cfg:           dep.Config.withDefaults(),
		repoRevoke:    dep.RepoRevocation,
		repoChallenge: dep.RepoChallenge,
		repoIdentity:  dep.RepoIdentity,
		repoPassword:  dep.RepoPassword,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		hmac:          dep.HMAC,
		bcrypt:        dep.Bcrypt,
		otp:           dep.OTP,
		uid:           dep.UID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
	}

	meter := s.ins.Meter("auth.usecase")
	s.otpSent = counter(meter, "auth.otp.sent", "Number of OTP issuance attempts by outcome")
	s.otpVerified = counter(meter, "auth.otp.verified", "Number of OTP verifications by outcome")
	s.tokenIssued = counter(meter, "auth.token.issued", "Number of signed tokens by kind")

	return s
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Error("failed to create counter", "name", name, "error", err)
		return nil
	}
	return c
}

func (s *Usecase) count(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	if c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

// ValidationRules are the custom validator tags used by usecase inputs.
func ValidationRules() []validator.Rule {
	return []validator.Rule{
		{
			Tag:     "otp_purpose",
			Message: "{0} must be one of REGISTER, RESET_PASSWORD",
			Fn: func(v string) bool {
				return entity.OtpPurpose(v).IsValid()
			},
		},
	}
}
