package backend

import (
	"errors"
	"fmt"
	"strings"

	"fluxo/internal/config"
)

// Kind selects where ledger entries live.
type Kind string

const (
	KindMemory Kind = "memory"
	KindSQLite Kind = "sqlite"
)

// ParseKind accepts the DATA_BACKEND spelling, ignoring case and surrounding blanks.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindMemory, KindSQLite:
		return k, nil
	default:
		return "", fmt.Errorf("unknown ledger backend %q", s)
	}
}

func (k Kind) String() string { return string(k) }

// Events holds the broker settings used to announce entry changes.
type Events struct {
	URL      string
	Exchange string
	Queue    string
}

// Enabled reports whether change events should be published.
func (e Events) Enabled() bool { return e.URL != "" }

// Config describes the ledger backend to open.
type Config struct {
	Kind   Kind
	DBPath string
	Events Events
}

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("backend: nil app config")
	}
	kind, err := ParseKind(cfg.DataBackend)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Kind:   kind,
		DBPath: cfg.SQLiteDBPath,
		Events: Events{URL: cfg.AMQPURL, Exchange: cfg.AMQPExchange, Queue: cfg.AMQPQueue},
	}, nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := ParseKind(string(c.Kind)); err != nil {
		errs = append(errs, err)
	}
	if c.Kind == KindSQLite && strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("sqlite backend needs a database path"))
	}
	if c.Events.Enabled() && c.Events.Exchange == "" {
		errs = append(errs, errors.New("event exchange is required when AMQP is enabled"))
	}
	return errors.Join(errs...)
}
