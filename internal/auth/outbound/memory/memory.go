// Package memory holds in-process auth stores for local runs and tests.
// They honour the same contracts as the Postgres and Redis stores.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/pkg/goerror"
)

// Revocations is a map of revoked token ids to their expiry.
type Revocations struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{revoked: make(map[string]time.Time)}
}

func (r *Revocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.revoked[tokenID]
	return ok, nil
}

func (r *Revocations) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.revoked[tokenID]; !ok {
		r.revoked[tokenID] = expiresAt
	}
	return nil
}

func (r *Revocations) PurgeExpiredRevocations(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, exp := range r.revoked {
		if exp.Before(now) {
			delete(r.revoked, id)
			n++
		}
	}
	return n, nil
}

// Challenges stores OTP challenges in insertion order.
type Challenges struct {
	mu   sync.RWMutex
	rows []entity.OtpChallenge
}

func NewChallenges() *Challenges {
	return &Challenges{}
}

// GetActiveChallenge returns the newest active challenge for (email, purpose).
func (c *Challenges) GetActiveChallenge(_ context.Context, email string, purpose entity.OtpPurpose) (*entity.OtpChallenge, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := len(c.rows) - 1; i >= 0; i-- {
		row := c.rows[i]
		if row.ConsumedAt == nil && row.Purpose == purpose && strings.EqualFold(row.Email, email) {
			return cloneChallenge(row), nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (c *Challenges) ReplaceChallenge(_ context.Context, superseded *entity.OtpChallenge, next entity.OtpChallenge) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slices.ContainsFunc(c.rows, func(r entity.OtpChallenge) bool { return r.ID == next.ID }) {
		return goerror.ErrConflict
	}

	if superseded != nil {
		if err := c.supersede(*superseded); err != nil {
			return err
		}
	}

	c.rows = append(c.rows, *cloneChallenge(next))
	return nil
}

// SaveChallenge applies attempts and consumed_at only while the stored row
// is unconsumed and still holds seenAttempts.
func (c *Challenges) SaveChallenge(_ context.Context, ch entity.OtpChallenge, seenAttempts int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.rows, func(r entity.OtpChallenge) bool { return r.ID == ch.ID })
	if i < 0 {
		return goerror.ErrNotFound
	}

	row := &c.rows[i]
	if row.ConsumedAt != nil || row.Attempts != seenAttempts {
		return goerror.ErrConflict
	}

	row.Attempts = ch.Attempts
	if ch.ConsumedAt != nil {
		at := *ch.ConsumedAt
		row.ConsumedAt = &at
	}
	return nil
}

func (c *Challenges) supersede(ch entity.OtpChallenge) error {
	for i := range c.rows {
		if c.rows[i].ID != ch.ID {
			continue
		}
		if c.rows[i].ConsumedAt == nil && ch.ConsumedAt != nil {
			at := *ch.ConsumedAt
			c.rows[i].ConsumedAt = &at
		}
		return nil
	}
	return goerror.ErrNotFound
}

func (c *Challenges) PurgeConsumedChallenges(_ context.Context, before time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.rows[:0]
	var n int64
	for _, row := range c.rows {
		if row.ConsumedAt != nil && row.ConsumedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	c.rows = kept
	return n, nil
}

// All returns a snapshot of every stored challenge, oldest first.
func (c *Challenges) All() []entity.OtpChallenge {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]entity.OtpChallenge, 0, len(c.rows))
	for _, row := range c.rows {
		out = append(out, *cloneChallenge(row))
	}
	return out
}

func cloneChallenge(ch entity.OtpChallenge) *entity.OtpChallenge {
	out := ch
	if ch.ConsumedAt != nil {
		at := *ch.ConsumedAt
		out.ConsumedAt = &at
	}
	out.Metadata = ch.Metadata.Clone()
	return &out
}

// Identities is a seeded identity directory keyed by lower-cased email.
type Identities struct {
	mu        sync.RWMutex
	byID      map[string]entity.Identity
	passwords map[int64]string
}

func NewIdentities(seed ...entity.Identity) *Identities {
	ids := &Identities{
		byID:      make(map[string]entity.Identity, len(seed)),
		passwords: make(map[int64]string),
	}
	for _, id := range seed {
		ids.Put(id)
	}
	return ids
}

func (i *Identities) Put(id entity.Identity) {
	i.mu.Lock()
	defer i.mu.Unlock()

	id.Roles = slices.Clone(id.Roles)
	i.byID[strings.ToLower(id.Email)] = id
}

func (i *Identities) GetIdentityByEmail(_ context.Context, email string) (*entity.Identity, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	id, ok := i.byID[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	id.Roles = slices.Clone(id.Roles)
	return &id, nil
}

// UpdatePassword matches the user by id, then by email.
func (i *Identities) UpdatePassword(_ context.Context, userID int64, email, passwordHash string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, id := range i.byID {
		if userID != 0 && id.ID == userID {
			i.passwords[id.ID] = passwordHash
			return nil
		}
	}

	id, ok := i.byID[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return goerror.ErrNotFound
	}
	i.passwords[id.ID] = passwordHash
	return nil
}

// PasswordHash returns the stored hash for userID, or "".
func (i *Identities) PasswordHash(userID int64) string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return i.passwords[userID]
}
