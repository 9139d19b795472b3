// Package config reads process settings from flags and the environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nixxel-company-limited/escpos-printkit/adapter"
	"github.com/nixxel-company-limited/escpos-printkit/escpos"
)

// Keys, also the names of the environment variables.
const (
	KeyServerAddress  = "SERVER_ADDRESS"
	KeyWSAddress      = "WS_ADDRESS"
	KeyConnectTimeout = "CONNECT_TIMEOUT"
	KeyWriteTimeout   = "WRITE_TIMEOUT"
	KeyRetryAttempts  = "RETRY_ATTEMPTS"
	KeyRetryBaseDelay = "RETRY_BASE_DELAY"
	KeyRetryMaxDelay  = "RETRY_MAX_DELAY"
	KeyCodePage       = "CODE_PAGE"
	KeyLogLevel       = "LOG_LEVEL"
)

// Config holds the transport and encoder defaults of the process.
type Config struct {
	ServerAddress  string
	WSAddress      string
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	CodePage       escpos.CodePage
	LogLevel       zapcore.Level
}

type flagDef struct {
	key, name, usage string
	def              any
}

var flagDefs = []flagDef{
	{KeyServerAddress, "address", "TCP job server listen address", "localhost:9110"},
	{KeyWSAddress, "ws-address", "WebSocket listen address, empty to disable", ""},
	{KeyConnectTimeout, "connect-timeout", "network connect timeout per attempt", 3 * time.Second},
	{KeyWriteTimeout, "write-timeout", "network write timeout per attempt", 5 * time.Second},
	{KeyRetryAttempts, "retry-attempts", "network attempts before giving up", 5},
	{KeyRetryBaseDelay, "retry-base-delay", "first retry delay", 100 * time.Millisecond},
	{KeyRetryMaxDelay, "retry-max-delay", "retry delay cap", 2 * time.Second},
	{KeyCodePage, "code-page", "single-byte code page for text", escpos.DefaultCodePage.Name},
	{KeyLogLevel, "log-level", "debug, info, warn or error", "info"},
}

// Load resolves settings from args, then the environment, then defaults.
// It returns the arguments left after flag parsing.
func Load(args []string) (Config, []string, error) {
	v := viper.New()
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("escpos-printkit", pflag.ContinueOnError)
	for _, f := range flagDefs {
		v.SetDefault(f.key, f.def)
		switch def := f.def.(type) {
		case string:
			fs.String(f.name, def, f.usage)
		case int:
			fs.Int(f.name, def, f.usage)
		case time.Duration:
			fs.Duration(f.name, def, f.usage)
		}
		if err := v.BindPFlag(f.key, fs.Lookup(f.name)); err != nil {
			return Config{}, nil, err
		}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	cfg := Config{
		ServerAddress:  v.GetString(KeyServerAddress),
		WSAddress:      v.GetString(KeyWSAddress),
		ConnectTimeout: v.GetDuration(KeyConnectTimeout),
		WriteTimeout:   v.GetDuration(KeyWriteTimeout),
		RetryAttempts:  v.GetInt(KeyRetryAttempts),
		RetryBaseDelay: v.GetDuration(KeyRetryBaseDelay),
		RetryMaxDelay:  v.GetDuration(KeyRetryMaxDelay),
	}
	if cfg.RetryAttempts < 1 {
		return Config{}, nil, fmt.Errorf("%s must be at least 1, got %d", KeyRetryAttempts, cfg.RetryAttempts)
	}

	page, err := escpos.LookupCodePage(v.GetString(KeyCodePage))
	if err != nil {
		return Config{}, nil, fmt.Errorf("%s: %w", KeyCodePage, err)
	}
	cfg.CodePage = page

	level, err := zapcore.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, nil, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	cfg.LogLevel = level

	return cfg, fs.Args(), nil
}

// Backoff returns the network retry policy.
func (c Config) Backoff() adapter.Backoff {
	return adapter.Backoff{Attempts: c.RetryAttempts, Base: c.RetryBaseDelay, Max: c.RetryMaxDelay}
}

// AdapterOptions returns the transport options derived from c.
func (c Config) AdapterOptions() []adapter.Option {
	return []adapter.Option{
		adapter.WithBackoff(c.Backoff()),
		adapter.WithTimeouts(c.ConnectTimeout, c.WriteTimeout),
	}
}

// Logger builds a production zap logger at the configured level.
func (c Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(c.LogLevel)
	return zc.Build()
}
