package inbound

import (
	"context"
	"time"

	"github.com/shandysiswandi/authcore/internal/auth/usecase"
	"github.com/shandysiswandi/authcore/internal/pkg/goroutine"
)

type purger interface {
	Purge(ctx context.Context) (*usecase.PurgeOutput, error)
}

// RegisterPurgeWorker deletes expired revocations and old consumed
// challenges every interval until ctx is done.
func RegisterPurgeWorker(ctx context.Context, gm *goroutine.Manager, uc purger, interval time.Duration) {
	gm.Every(ctx, "auth.purge", interval, func(ctx context.Context) error {
		_, err := uc.Purge(ctx)
		return err
	})
}
