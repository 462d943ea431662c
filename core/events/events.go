// Package events publishes reconciliation reports to NATS so other systems
// can audit or react to device sync runs.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Config holds the NATS connection settings.
type Config struct {
	Enabled       bool   `mapstructure:"enabled" default:"false"`
	URL           string `mapstructure:"url" default:"nats://127.0.0.1:4222"`
	SubjectPrefix string `mapstructure:"subject_prefix" default:"netsync.report"`
	ClientName    string `mapstructure:"client_name" default:"netsync"`
}

// ErrNotConnected is returned when publishing on a closed connection.
var ErrNotConnected = errors.New("nats not connected")

// Publisher sends raw payloads to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
	Close()
}

// NATSPublisher is a Publisher over a reconnecting NATS connection.
type NATSPublisher struct {
	nc  *nats.Conn
	log *zap.Logger
}

// NewNATSPublisher connects to cfg.URL. Reconnects are unlimited.
func NewNATSPublisher(cfg *Config, log *zap.Logger) (*NATSPublisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.URL, err)
	}
	return &NATSPublisher{nc: nc, log: log}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.nc == nil || p.nc.IsClosed() {
		return ErrNotConnected
	}
	return p.nc.Publish(subject, payload)
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.log.Warn("nats drain failed", zap.Error(err))
	}
	p.nc.Close()
}

// Nop discards everything. Used when events are disabled.
type Nop struct{}

func (Nop) Publish(context.Context, string, []byte) error { return nil }
func (Nop) Close()                                        {}

// New returns a NATS publisher when cfg enables events, Nop otherwise.
func New(cfg *Config, log *zap.Logger) (Publisher, error) {
	if cfg == nil || !cfg.Enabled {
		return Nop{}, nil
	}
	return NewNATSPublisher(cfg, log)
}

// Subject builds "<prefix>.<device>". Characters NATS treats specially are
// replaced so a hostname is always one token.
func Subject(prefix, device string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, device)
	if token == "" {
		token = "_"
	}
	return prefix + "." + token
}

// PublishJSON marshals v and publishes it on Subject(prefix, device).
func PublishJSON(ctx context.Context, p Publisher, prefix, device string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.Publish(ctx, Subject(prefix, device), payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
