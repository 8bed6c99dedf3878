package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sethvargo/go-retry"
	authdb "github.com/shandysiswandi/authcore/internal/auth/outbound/db"
	"github.com/shandysiswandi/authcore/internal/auth/usecase"
	"github.com/shandysiswandi/authcore/internal/pkg/clock"
	"github.com/shandysiswandi/authcore/internal/pkg/config"
	"github.com/shandysiswandi/authcore/internal/pkg/goroutine"
	"github.com/shandysiswandi/authcore/internal/pkg/hash"
	"github.com/shandysiswandi/authcore/internal/pkg/idempotency"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"github.com/shandysiswandi/authcore/internal/pkg/jwt"
	"github.com/shandysiswandi/authcore/internal/pkg/mail"
	"github.com/shandysiswandi/authcore/internal/pkg/messaging"
	"github.com/shandysiswandi/authcore/internal/pkg/migration"
	"github.com/shandysiswandi/authcore/internal/pkg/otp"
	"github.com/shandysiswandi/authcore/internal/pkg/router"
	"github.com/shandysiswandi/authcore/internal/pkg/uid"
	"github.com/shandysiswandi/authcore/internal/pkg/validator"
)

// secrets are read from the environment and win over the config file.
type secrets struct {
	JWTSecret string `env:"AUTH_JWT_SECRET"`
	OTPSecret string `env:"AUTH_OTP_SECRET"`
	Pepper    string `env:"AUTH_PASSWORD_PEPPER"`
}

func defaults() map[string]any {
	return map[string]any{
		"app.server.max_goroutine":                     100,
		"app.server.http.address":                      ":8080",
		"app.server.http.read_timeout_seconds":         10,
		"app.server.http.read_header_timeout_seconds":  5,
		"app.server.http.write_timeout_seconds":        10,
		"app.server.http.idle_timeout_seconds":         60,
		"app.node_id":                                  1,
		"instrument.service_name":                      "authcore",
		"instrument.log_mask_fields":                   "password,new_password,otp,code,token,temp_reset_token,secret,authorization",
		"jwt.issuer":                                   "auth-service",
		"hash.bcrypt.cost":                             10,
		"database.migrate":                             true,
		"database.connect_retries":                     5,
		"messaging.driver":                             messaging.DriverMemory,
		"modules.auth.enabled":                         true,
		"modules.notification.enabled":                 true,
		"modules.notification.consumer_names":          "otp_dispatch_notification",
		"modules.auth.purge.interval_seconds":          3600,
		"modules.auth.purge.challenge_retention_hours": 168,
	}
}

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path, config.WithDefaults(defaults()))
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	var sec secrets
	if err := config.ParseEnv(&sec); err != nil {
		slog.Error("failed to read secrets from env", "error", err)
		os.Exit(1)
	}
	a.secrets = resolveSecrets(cfg, sec)

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	a.config = cfg
}

// resolveSecrets fills blank env secrets from the config file.
func resolveSecrets(cfg config.Config, env secrets) secrets {
	if env.JWTSecret == "" {
		env.JWTSecret = cfg.GetString("jwt.secret")
	}
	if env.OTPSecret == "" {
		env.OTPSecret = cfg.GetString("modules.auth.otp.secret")
	}
	if env.Pepper == "" {
		env.Pepper = cfg.GetString("hash.bcrypt.pepper")
	}
	return env
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.otp = otp.NewNumeric(libOTP.DigitsSix)

	hmac, err := hash.NewHMACSHA256(a.secrets.OTPSecret)
	if err != nil {
		slog.Error("failed to init otp hmac, set AUTH_OTP_SECRET or modules.auth.otp.secret", "error", err)
		os.Exit(1)
	}
	a.hmac = hmac
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.secrets.Pepper)

	v, err := validator.NewV10Validator(usecase.ValidationRules()...)
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = v

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	codec, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.secrets.JWTSecret),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt codec, set AUTH_JWT_SECRET or jwt.secret", "error", err)
		os.Exit(1)
	}
	a.jwt = codec
}

// connect retries f with a capped fibonacci backoff until it succeeds or the
// attempts run out.
func connect(ctx context.Context, name string, attempts uint64, f func(ctx context.Context) error) error {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(attempts, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := f(pingCtx); err != nil {
			slog.WarnContext(ctx, "dependency not ready, retrying", "name", name, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (a *App) initDatabase() {
	url := strings.TrimSpace(a.config.GetString("database.url"))
	if url == "" {
		slog.Warn("database.url is empty, postgres stores are unavailable")
		return
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	if v := a.config.GetInt("database.pool.max_conns"); v > 0 {
		cfg.MaxConns = int32(v)
	}
	if v := a.config.GetInt("database.pool.min_conns"); v > 0 {
		cfg.MinConns = int32(v)
	}
	if v := a.config.GetSecond("database.pool.max_conn_lifetime_seconds"); v > 0 {
		cfg.MaxConnLifetime = v
	}
	if v := a.config.GetSecond("database.pool.max_conn_idle_seconds"); v > 0 {
		cfg.MaxConnIdleTime = v
	}

	pool, err := pgxpool.NewWithConfig(a.ctx, cfg)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	retries := uint64(a.config.GetInt64("database.connect_retries"))
	if err := connect(a.ctx, "postgres", retries, pool.Ping); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("database.migrate") {
		if err := migration.UpFromPool(a.ctx, pool, authdb.Migrations()); err != nil {
			slog.Error("failed to migrate DB", "error", err)
			os.Exit(1)
		}
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	url := strings.TrimSpace(a.config.GetString("redis.url"))
	if url == "" {
		slog.Warn("redis.url is empty, using in-process idempotency")
		a.idemp = idempotency.NewMemory()
		return
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	retries := uint64(a.config.GetInt64("database.connect_retries"))
	if err := connect(a.ctx, "redis", retries, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(rdb)
}

func (a *App) initMail() {
	if strings.TrimSpace(a.config.GetString("mail.host")) == "" {
		slog.Warn("mail.host is empty, emails are logged instead of sent")
		a.mail = mail.NewLog()
		return
	}

	client, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = client
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	cfg := messaging.Config{
		Driver: driver,
		NATS: messaging.NATSConfig{
			URL:  a.config.GetString("messaging.nats.url"),
			Name: a.config.GetString("messaging.nats.name"),
		},
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			NSQDAddrs:    a.config.GetArray("messaging.nsq.nsqd_addrs"),
			LookupdAddrs: a.config.GetArray("messaging.nsq.lookupd_addrs"),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:       a.config.GetString("messaging.pubsub.project_id"),
			Endpoint:        a.config.GetString("messaging.pubsub.endpoint"),
			CredentialsFile: a.config.GetString("messaging.pubsub.credentials_file"),
		},
	}

	var client messaging.Messaging
	retries := uint64(a.config.GetInt64("database.connect_retries"))
	if err := connect(a.ctx, "messaging", retries, func(context.Context) error {
		// clients keep the context they are built with, so use the app one
		c, err := messaging.New(a.ctx, cfg)
		if err != nil {
			return err
		}
		client = c
		return nil
	}); err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				if a.dbConn != nil {
					a.dbConn.Close()
				}
				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
