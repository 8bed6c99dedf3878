package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/authcore/internal/pkg/idempotency"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"github.com/shandysiswandi/authcore/internal/pkg/mail"
	"github.com/shandysiswandi/authcore/internal/pkg/validator"
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Config struct {
	// DedupTTL is how long a delivered challenge id is remembered.
	DedupTTL time.Duration
}

type Usecase struct {
	cfg       Config
	repoMail  repoMail
	guard     idempotency.Guard
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	Config     Config
	RepoMail   repoMail
	Guard      idempotency.Guard
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	cfg := dep.Config
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 24 * time.Hour
	}

	return &Usecase{
		cfg:       cfg,
		repoMail:  dep.RepoMail,
		guard:     dep.Guard,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}
