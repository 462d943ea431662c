package devicesync

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Service runs device syncs for the HTTP handler.
type Service struct {
	source  Source
	syncer  *Syncer
	logger  *zap.Logger
	timeout time.Duration
}

// NewService creates a new sync service. A zero timeout disables the
// per-request deadline.
func NewService(source Source, syncer *Syncer, logger *zap.Logger, timeout time.Duration) *Service {
	return &Service{source: source, syncer: syncer, logger: logger, timeout: timeout}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Devices lists the devices with a snapshot.
func (s *Service) Devices(ctx context.Context) ([]string, error) {
	return s.source.Devices(ctx)
}

// Sync loads the latest snapshot of device and reconciles it.
func (s *Service) Sync(ctx context.Context, device string, dryRun bool) (*Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	snap, err := s.source.Load(ctx, device)
	if err != nil {
		return nil, err
	}
	return s.syncer.Run(ctx, snap, dryRun), nil
}

// SyncAll reconciles every device with a snapshot. A snapshot that cannot
// be loaded aborts before anything is applied.
func (s *Service) SyncAll(ctx context.Context, dryRun bool) ([]*Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	devices, err := s.source.Devices(ctx)
	if err != nil {
		return nil, err
	}
	snaps := make([]*Snapshot, 0, len(devices))
	for _, d := range devices {
		snap, err := s.source.Load(ctx, d)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return s.syncer.RunMany(ctx, snaps, dryRun), nil
}
