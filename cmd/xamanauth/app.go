package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/layer-3/xamanauth/adapters/events"
	"github.com/layer-3/xamanauth/adapters/store"
	"github.com/layer-3/xamanauth/adapters/tokenizer"
	"github.com/layer-3/xamanauth/adapters/xaman"
	"github.com/layer-3/xamanauth/config"
	"github.com/layer-3/xamanauth/logging"
	"github.com/layer-3/xamanauth/metrics"
	"github.com/layer-3/xamanauth/ports"
	"github.com/layer-3/xamanauth/service"
	"github.com/redis/go-redis/v9"
)

// app holds the wired components shared by the commands
type app struct {
	cfg        *config.Config
	store      ports.SessionStore
	controller *service.AuthController
	metrics    *metrics.PairingMetrics
	closers    []func() error
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logging.Configure(os.Stderr, cfg.Log.Format, level)
	return cfg, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, metrics: metrics.New()}

	st, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.onClose(closeStore)

	opts := []service.Option{
		service.WithPollInterval(cfg.Pairing.PollInterval),
		service.WithPollTimeout(cfg.Pairing.PollTimeout),
		service.WithMetrics(a.metrics),
	}

	if cfg.Events.RedisURL != "" {
		publisher, closePublisher, err := openPublisher(cfg.Events)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.onClose(closePublisher)
		opts = append(opts, service.WithEventPublisher(publisher))
	}

	client := xaman.NewClient(xaman.Config{
		APIKey:    cfg.Xaman.APIKey,
		APISecret: cfg.Xaman.APISecret,
		BaseURL:   cfg.Xaman.BaseURL,
		Timeout:   cfg.Xaman.Timeout,
	})
	if !client.Configured() {
		logging.Warn("XAMAN_API_KEY is not set; wallet pairing is disabled")
	}

	a.controller = service.NewAuthController(ctx, st, client, opts...)
	return a, nil
}

func (a *app) onClose(fn func() error) {
	if fn != nil {
		a.closers = append(a.closers, fn)
	}
}

// Close stops the controller and releases connections in reverse order
func (a *app) Close() {
	if a.controller != nil {
		a.controller.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logging.Warn("shutdown step failed", logging.Err(err))
		}
	}
	a.closers = nil
}

func openStore(cfg config.StoreConfig) (ports.SessionStore, func() error, error) {
	switch cfg.Backend {
	case config.BackendFile:
		st, err := store.NewFileStore(cfg.Path)
		return st, nil, err

	case config.BackendKeyring:
		ring, err := store.OpenKeyring(store.KeyringOptions{
			ServiceName:  cfg.KeyringService,
			FileDir:      cfg.KeyringDir,
			FilePassword: cfg.KeyringPassword,
		})
		if err != nil {
			return nil, nil, err
		}
		return store.NewKeyringStore(ring, cfg.Key), nil, nil

	case config.BackendRedis:
		client, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(client, cfg.Key), client.Close, nil

	case config.BackendSQLite:
		st, err := store.OpenSQLiteStore(cfg.Path, cfg.Key)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil

	case config.BackendMemory:
		return store.NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

func openPublisher(cfg config.EventsConfig) (ports.EventPublisher, func() error, error) {
	client, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: client,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to create Redis publisher: %w", err)
	}

	closeAll := func() error {
		return errors.Join(publisher.Close(), client.Close())
	}
	return events.NewWatermillPublisher(publisher).WithTopicPrefix(cfg.TopicPrefix), closeAll, nil
}

func newRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// loadSigningKey reads a PEM encoded EC key, or generates a throwaway one.
// Access tokens minted with a generated key do not survive a restart.
func loadSigningKey(path string) (*ecdsa.PrivateKey, error) {
	if path == "" {
		logging.Warn("no signing key configured; generating an ephemeral one")
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("signing key %s is not PEM encoded", path)
	}

	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signing key %s is not an ECDSA key", path)
	}
	return key, nil
}

func newTokenizer(cfg config.HTTPConfig) (*tokenizer.JWTTokenizer, error) {
	key, err := loadSigningKey(cfg.SigningKeyPath)
	if err != nil {
		return nil, err
	}
	return tokenizer.NewJWTTokenizer(key, cfg.TokenIssuer), nil
}
