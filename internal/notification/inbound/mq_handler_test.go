package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shandysiswandi/authcore/internal/notification/usecase"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"github.com/shandysiswandi/authcore/internal/pkg/messaging"
	"github.com/shandysiswandi/authcore/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	got []usecase.ConsumeOtpDispatchInput
	cID string
	err error
}

func (f *fakeUC) ConsumeOtpDispatch(ctx context.Context, in usecase.ConsumeOtpDispatchInput) error {
	f.got = append(f.got, in)
	f.cID = instrument.GetCorrelationID(ctx)
	return f.err
}

type fixedUUID string

func (f fixedUUID) Generate() string { return string(f) }

func delivery(t *testing.T, headers map[string]string) *messaging.Delivery {
	t.Helper()
	body, err := json.Marshal(event.OtpDispatchMessage{
		ChallengeID: 7,
		Email:       "jane@example.com",
		Code:        "654321",
		Purpose:     "RESET_PASSWORD",
		TTLSeconds:  300,
	})
	require.NoError(t, err)
	return &messaging.Delivery{Topic: event.OtpDispatchDestination, ID: "m-1", Body: body, Headers: headers}
}

func TestMQHandler_OtpDispatch(t *testing.T) {
	t.Run("maps payload and keeps correlation id", func(t *testing.T) {
		// Arrange
		f := &fakeUC{}
		h := &MQHandler{uc: f, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		// Act
		err := h.OtpDispatch(context.Background(), delivery(t, map[string]string{"cID": "from-auth"}))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []usecase.ConsumeOtpDispatchInput{{
			ChallengeID: 7,
			Email:       "jane@example.com",
			Code:        "654321",
			Purpose:     "RESET_PASSWORD",
			TTLSeconds:  300,
		}}, f.got)
		assert.Equal(t, "from-auth", f.cID)
	})

	t.Run("generates correlation id", func(t *testing.T) {
		f := &fakeUC{}
		h := &MQHandler{uc: f, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		require.NoError(t, h.OtpDispatch(context.Background(), delivery(t, nil)))

		assert.Equal(t, "generated", f.cID)
	})

	t.Run("malformed body is acknowledged", func(t *testing.T) {
		f := &fakeUC{}
		h := &MQHandler{uc: f, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		err := h.OtpDispatch(context.Background(), &messaging.Delivery{Body: []byte("{")})

		assert.NoError(t, err)
		assert.Empty(t, f.got)
	})

	t.Run("usecase error is returned for redelivery", func(t *testing.T) {
		boom := errors.New("relay down")
		h := &MQHandler{uc: &fakeUC{err: boom}, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		err := h.OtpDispatch(context.Background(), delivery(t, nil))

		assert.ErrorIs(t, err, boom)
	})
}
