package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/authcore/internal/pkg/goerror"
)

type PurgeOutput struct {
	Revocations int64
	Challenges  int64
}

// Purge deletes revocations past their expiry and challenges consumed before
// the retention window. Verification never depends on it having run.
func (s *Usecase) Purge(ctx context.Context) (*PurgeOutput, error) {
	ctx, span := s.startSpan(ctx, "Purge")
	defer span.End()

	now := s.clock.Now()

	revocations, err := s.repoRevoke.PurgeExpiredRevocations(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo purge revocations", "error", err)
		return nil, goerror.NewServer(err)
	}

	challenges, err := s.repoChallenge.PurgeConsumedChallenges(ctx, now.Add(-s.cfg.ChallengeRetention))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo purge challenges", "error", err)
		return nil, goerror.NewServer(err)
	}

	if revocations > 0 || challenges > 0 {
		slog.InfoContext(ctx, "auth records purged", "revocations", revocations, "challenges", challenges)
	}

	return &PurgeOutput{Revocations: revocations, Challenges: challenges}, nil
}
