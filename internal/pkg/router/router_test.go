package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/authcore/internal/pkg/config"
	"github.com/shandysiswandi/authcore/internal/pkg/goerror"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"github.com/shandysiswandi/authcore/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type userKey struct{}

type fakeAuthn struct{}

func (fakeAuthn) Authenticate(ctx context.Context, token string) (context.Context, error) {
	if token != "good" {
		return nil, goerror.NewBusiness("Authentication required.", goerror.CodeUnauthorized)
	}
	return context.WithValue(ctx, userKey{}, "jane"), nil
}

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()
	var cfg config.Config
	if yaml != "" {
		v, err := config.NewViperFromBytes("yaml", []byte(yaml))
		require.NoError(t, err)
		cfg = v
	}
	return NewRouter(Config{Config: cfg, UUID: fixedID("cid-gen"), Instrument: instrument.NewNoop()})
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRouter_Health(t *testing.T) {
	// Arrange
	ro := newTestRouter(t, "")

	// Act
	rec, body := do(t, ro, http.MethodGet, "/health", "", nil)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cid-gen", rec.Header().Get(HeaderCorrelationID))
	assert.Equal(t, map[string]any{"status": "ok"}, body["data"])
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	ro := newTestRouter(t, "")

	rec, body := do(t, ro, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "endpoint not found", body["message"])

	rec, _ = do(t, ro, http.MethodPost, "/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_ErrorCodec(t *testing.T) {
	ro := newTestRouter(t, "")
	ro.POST("/business", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("OTP has expired.", goerror.CodeBadRequest)
	})
	ro.POST("/validation", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(validator.V10ValidationError{"email": "email is required"})
	})
	ro.POST("/server", func(*Request) (any, error) {
		return nil, goerror.NewServer(errors.New("db down"))
	})
	ro.POST("/raw", func(*Request) (any, error) {
		return nil, errors.New("boom")
	})
	ro.POST("/empty", func(*Request) (any, error) { return nil, nil })

	tests := []struct {
		path    string
		status  int
		message string
		fields  map[string]any
	}{
		{"/business", http.StatusBadRequest, "OTP has expired.", nil},
		{"/validation", http.StatusUnprocessableEntity, "", map[string]any{"email": "email is required"}},
		{"/server", http.StatusInternalServerError, "", nil},
		{"/raw", http.StatusInternalServerError, "Internal server error", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, body := do(t, ro, http.MethodPost, tt.path, "", nil)

			assert.Equal(t, tt.status, rec.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, body["message"])
			}
			if tt.fields != nil {
				assert.Equal(t, tt.fields, body["error"])
			}
			assert.NotContains(t, rec.Body.String(), "db down")
		})
	}

	rec, _ := do(t, ro, http.MethodPost, "/empty", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_Bearer(t *testing.T) {
	// Arrange
	ro := newTestRouter(t, "")
	ro.GET("/me", func(r *Request) (any, error) {
		return map[string]any{"user": r.Context().Value(userKey{})}, nil
	}, Bearer(fakeAuthn{}))

	// Act & Assert
	rec, body := do(t, ro, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required.", body["message"])

	rec, _ = do(t, ro, http.MethodGet, "/me", "", map[string]string{"Authorization": "Basic good"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, ro, http.MethodGet, "/me", "", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = do(t, ro, http.MethodGet, "/me", "", map[string]string{"Authorization": "bearer good"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"user": "jane"}, body["data"])
}

func TestRouter_DecodeBody(t *testing.T) {
	ro := newTestRouter(t, "")
	ro.POST("/echo", func(r *Request) (any, error) {
		var in struct {
			Email string `json:"email"`
		}
		if err := r.DecodeBody(&in); err != nil {
			return nil, err
		}
		return in, nil
	})

	rec, body := do(t, ro, http.MethodPost, "/echo", `{"email":"a@b.c"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"email": "a@b.c"}, body["data"])

	for _, payload := range []string{`{"email":1}`, `{"other":"x"}`, `{"email":"a"}{}`, `not json`} {
		rec, _ = do(t, ro, http.MethodPost, "/echo", payload, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, payload)
	}
}

func TestRouter_RecoverAndCorrelation(t *testing.T) {
	ro := newTestRouter(t, "")
	ro.GET("/panic", func(*Request) (any, error) { panic("kaboom") })

	rec, body := do(t, ro, http.MethodGet, "/panic", "", map[string]string{HeaderRequestID: " from-proxy "})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["message"])
	assert.Equal(t, "from-proxy", rec.Header().Get(HeaderCorrelationID))
}

func TestRouter_Maintenance(t *testing.T) {
	ro := newTestRouter(t, "app:\n  maintenance:\n    endpoints: \"/health, /other\"\n")

	rec, body := do(t, ro, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "service is under maintenance", body["message"])
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"true client ip", map[string]string{"True-Client-IP": "1.1.1.1", "X-Real-IP": "2.2.2.2"}, "9.9.9.9:1", "1.1.1.1"},
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "3.3.3.3, 4.4.4.4"}, "9.9.9.9:1", "3.3.3.3"},
		{"invalid header falls back", map[string]string{"X-Real-IP": "nope"}, "9.9.9.9:1", "9.9.9.9"},
		{"nothing usable", nil, "garbage", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, realIP(req))
		})
	}
}
