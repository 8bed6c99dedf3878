package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/auth/outbound/memory"
	"github.com/shandysiswandi/authcore/internal/auth/usecase"
	"github.com/shandysiswandi/authcore/internal/pkg/clock"
	"github.com/shandysiswandi/authcore/internal/pkg/goerror"
	"github.com/shandysiswandi/authcore/internal/pkg/hash"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"github.com/shandysiswandi/authcore/internal/pkg/jwt"
	"github.com/shandysiswandi/authcore/internal/pkg/uid"
	"github.com/shandysiswandi/authcore/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0         = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	testSecret = []byte(strings.Repeat("k", 64))
	errBoom    = errors.New("boom")
)

type fixedOTP struct {
	mu    sync.Mutex
	codes []string
}

// Generate hands out the queued codes and then repeats the last one.
func (f *fixedOTP) Generate() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code := f.codes[0]
	if len(f.codes) > 1 {
		f.codes = f.codes[1:]
	}
	return code, nil
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

type outbox struct {
	mu     sync.Mutex
	events []usecase.OtpDispatchEvent
	err    error
}

func (o *outbox) PublishOtpDispatch(_ context.Context, msg usecase.OtpDispatchEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.events = append(o.events, msg)
	return nil
}

func (o *outbox) last(t *testing.T) usecase.OtpDispatchEvent {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.events)
	return o.events[len(o.events)-1]
}

// failingRevocations fails every call once err is set.
type failingRevocations struct {
	*memory.Revocations
	err error
}

func (f *failingRevocations) IsRevoked(ctx context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.Revocations.IsRevoked(ctx, id)
}

func (f *failingRevocations) Revoke(ctx context.Context, id string, exp time.Time) error {
	if f.err != nil {
		return f.err
	}
	return f.Revocations.Revoke(ctx, id, exp)
}

type failingChallenges struct {
	*memory.Challenges
	saveErr error
	// readers, when set, holds every GetActiveChallenge caller until all
	// of them have read.
	readers *sync.WaitGroup
}

func (f *failingChallenges) GetActiveChallenge(ctx context.Context, email string, purpose entity.OtpPurpose) (*entity.OtpChallenge, error) {
	ch, err := f.Challenges.GetActiveChallenge(ctx, email, purpose)
	if f.readers != nil {
		f.readers.Done()
		f.readers.Wait()
	}
	return ch, err
}

func (f *failingChallenges) SaveChallenge(ctx context.Context, c entity.OtpChallenge, seen int) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Challenges.SaveChallenge(ctx, c, seen)
}

type fixture struct {
	uc          *usecase.Usecase
	clock       *clock.Frozen
	revocations *failingRevocations
	challenges  *failingChallenges
	identities  *memory.Identities
	outbox      *outbox
	otp         *fixedOTP
	bcrypt      *hash.Bcrypt
	jwt         jwt.JWT
	cfg         usecase.Config
}

var jane = entity.Identity{
	ID:       42,
	Email:    "janedoe@example.com",
	Username: "jane",
	Status:   entity.UserStatusActive,
	Roles:    []entity.Role{{Code: "USER", Priority: 1}, {Code: "ADMIN", Priority: 9}},
}

func newFixture(t *testing.T, mutate ...func(*usecase.Config)) *fixture {
	t.Helper()

	cfg := usecase.DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	clk := clock.NewFrozen(t0)
	codec, err := jwt.NewHS512(jwt.Config{Secret: testSecret, Issuer: "auth-service", Clock: clk, UUID: uid.NewUUID()})
	require.NoError(t, err)

	hmac, err := hash.NewHMACSHA256("otp-secret")
	require.NoError(t, err)

	v, err := validator.NewV10Validator(usecase.ValidationRules()...)
	require.NoError(t, err)

	f := &fixture{
		clock:       clk,
		revocations: &failingRevocations{Revocations: memory.NewRevocations()},
		challenges:  &failingChallenges{Challenges: memory.NewChallenges()},
		identities:  memory.NewIdentities(jane),
		outbox:      &outbox{},
		otp:         &fixedOTP{codes: []string{"123456"}},
		bcrypt:      hash.NewBcrypt(4, "pepper"),
		jwt:         codec,
		cfg:         cfg,
	}

	f.uc = usecase.New(usecase.Dependency{
		Config:         cfg,
		RepoRevocation: f.revocations,
		RepoChallenge:  f.challenges,
		RepoIdentity:   f.identities,
		RepoPassword:   f.identities,
		RepoMessaging:  f.outbox,
		Validator:      v,
		HMAC:           hmac,
		Bcrypt:         f.bcrypt,
		OTP:            f.otp,
		UID:            &seqID{},
		Clock:          clk,
		JWT:            codec,
		Instrument:     instrument.NewNoop(),
	})

	return f
}

// active returns the challenges for (email, purpose) that are still open.
func (f *fixture) active(email string, purpose entity.OtpPurpose) []entity.OtpChallenge {
	var out []entity.OtpChallenge
	for _, c := range f.challenges.All() {
		if c.Email == email && c.Purpose == purpose && c.ConsumedAt == nil {
			out = append(out, c)
		}
	}
	return out
}

func assertBusiness(t *testing.T, err error, sentinel error, status int, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)

	gerr, ok := goerror.As(err)
	require.True(t, ok)
	assert.Equal(t, status, gerr.StatusCode())
	assert.Equal(t, msg, gerr.Msg())
}

func assertServer(t *testing.T, err error) {
	t.Helper()
	gerr, ok := goerror.As(err)
	require.True(t, ok)
	assert.Equal(t, goerror.TypeServer, gerr.Type())
}
