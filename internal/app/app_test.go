package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const localConfig = `
app:
  server:
    max_goroutine: 8
messaging:
  driver: memory
modules:
  auth:
    revocation:
      driver: memory
    challenge:
      driver: memory
`

type successEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
}

func startApp(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(localConfig), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("AUTH_JWT_SECRET", strings.Repeat("s", 64))
	t.Setenv("AUTH_OTP_SECRET", "otp-secret")

	application := New()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	errChan := application.Serve(l)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		application.Stop(ctx)
		assert.ErrorIs(t, <-errChan, http.ErrServerClosed)
	})

	return "http://" + l.Addr().String()
}

func doJSON(t *testing.T, method, url string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		require.NoError(t, json.NewEncoder(buf).Encode(payload))
		body = buf
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func TestApp_LocalRun(t *testing.T) {
	base := startApp(t)

	t.Run("health", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodGet, base+"/health", nil)

		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("sign-up otp then wrong code", func(t *testing.T) {
		// Arrange
		email := "local.run@example.com"

		// Act
		status, body := doJSON(t, http.MethodPost, base+"/api/v1/auth/sign-up/otp", map[string]any{"email": email})

		// Assert
		require.Equal(t, http.StatusOK, status, string(body))
		var env successEnvelope
		require.NoError(t, json.Unmarshal(body, &env))
		assert.JSONEq(t, `{"email_masked":"l***n@example.com","expires_in_seconds":300,"next_step":"VERIFY_OTP"}`, string(env.Data))

		status, body = doJSON(t, http.MethodPost, base+"/api/v1/auth/sign-up/verify-otp", map[string]any{"email": email, "otp": "000000"})
		// the generated code can collide with the guess once in a million runs
		if status != http.StatusOK {
			assert.Equal(t, http.StatusBadRequest, status)
			var errEnv errorEnvelope
			require.NoError(t, json.Unmarshal(body, &errEnv))
			assert.Equal(t, "Invalid OTP.", errEnv.Message)
		}
	})

	t.Run("introspect garbage", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, base+"/api/v1/auth/introspect", map[string]any{"token": "not-a-jwt"})

		require.Equal(t, http.StatusOK, status)
		var env successEnvelope
		require.NoError(t, json.Unmarshal(body, &env))
		assert.JSONEq(t, `{"valid":false}`, string(env.Data))
	})

	t.Run("password reset with garbage token", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, base+"/api/v1/auth/forgot-password/reset",
			map[string]any{"temp_reset_token": "not-a-jwt", "new_password": "n3w-secret"})

		require.Equal(t, http.StatusUnauthorized, status)
		var errEnv errorEnvelope
		require.NoError(t, json.Unmarshal(body, &errEnv))
		assert.Equal(t, "Invalid reset token.", errEnv.Message)
	})
}
