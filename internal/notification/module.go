package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/authcore/internal/notification/inbound"
	"github.com/shandysiswandi/authcore/internal/notification/outbound/email"
	"github.com/shandysiswandi/authcore/internal/notification/usecase"
	"github.com/shandysiswandi/authcore/internal/pkg/config"
	"github.com/shandysiswandi/authcore/internal/pkg/goroutine"
	"github.com/shandysiswandi/authcore/internal/pkg/idempotency"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"github.com/shandysiswandi/authcore/internal/pkg/mail"
	"github.com/shandysiswandi/authcore/internal/pkg/messaging"
	"github.com/shandysiswandi/authcore/internal/pkg/uid"
	"github.com/shandysiswandi/authcore/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Messaging  messaging.Subscriber       `validate:"required"`
	Guard      idempotency.Guard          `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoMail := email.New(dep.Mail, dep.Config.GetString("modules.notification.mail_from"), dep.Instrument)

	var dedup time.Duration
	if dep.Config.IsSet("modules.notification.dedup_ttl_seconds") {
		dedup = dep.Config.GetSecond("modules.notification.dedup_ttl_seconds")
	}

	uc := usecase.New(usecase.Dependency{
		Config:     usecase.Config{DedupTTL: dedup},
		RepoMail:   repoMail,
		Guard:      dep.Guard,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

	slog.InfoContext(dep.Ctx, "notification module ready")
	return nil
}
