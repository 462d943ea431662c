package devicesync

import (
	"context"
	"fmt"

	"netsync/core/events"
	"netsync/core/reconcile"
	"netsync/core/storage"

	"go.uber.org/zap"
)

// Sink receives the result of every run.
type Sink interface {
	Publish(ctx context.Context, res *Result) error
}

// LogSink logs every failed or pending item of a run.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a sink writing to log.
func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Publish(ctx context.Context, res *Result) error {
	l := s.log.With(zap.String("run_id", res.RunID), zap.String("device", res.Device))
	for _, r := range res.Reports {
		for _, d := range r.Details {
			switch d.Outcome {
			case reconcile.OutcomeFailed:
				l.Warn("item failed", zap.String("kind", r.Kind), zap.String("identity", d.Identity), zap.String("error", d.Description))
			case reconcile.OutcomePending:
				l.Info("item pending", zap.String("kind", r.Kind), zap.String("identity", d.Identity))
			}
		}
		if r.Error != "" {
			l.Error("kind failed", zap.String("kind", r.Kind), zap.String("error", r.Error))
		}
	}
	return nil
}

// ArchiveSink stores every result as <prefix><device>/<run id>.json.
type ArchiveSink struct {
	client storage.Client
	bucket string
	prefix string
}

// NewArchiveSink creates a sink archiving to an object storage bucket.
func NewArchiveSink(client storage.Client, bucket, prefix string) *ArchiveSink {
	return &ArchiveSink{client: client, bucket: bucket, prefix: prefix}
}

// Key is the object key of a result.
func (s *ArchiveSink) Key(res *Result) string {
	device := res.Device
	if device == "" {
		device = "_unknown"
	}
	return fmt.Sprintf("%s%s/%s.json", s.prefix, device, res.RunID)
}

func (s *ArchiveSink) Publish(ctx context.Context, res *Result) error {
	return storage.PutJSON(ctx, s.client, s.bucket, s.Key(res), res)
}

// EventSink publishes a compact summary of every run.
type EventSink struct {
	publisher events.Publisher
	prefix    string
}

// NewEventSink creates a sink publishing on <prefix>.<device>.
func NewEventSink(p events.Publisher, prefix string) *EventSink {
	return &EventSink{publisher: p, prefix: prefix}
}

// Event is the published payload.
type Event struct {
	RunID     string `json:"run_id"`
	Device    string `json:"device"`
	DryRun    bool   `json:"dry_run"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Deleted   int    `json:"deleted"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Remaining int    `json:"remaining"`
	Error     string `json:"error,omitempty"`
}

func (s *EventSink) Publish(ctx context.Context, res *Result) error {
	sum := res.Summary
	return events.PublishJSON(ctx, s.publisher, s.prefix, res.Device, Event{
		RunID:     res.RunID,
		Device:    res.Device,
		DryRun:    res.DryRun,
		Created:   sum.Created,
		Updated:   sum.Updated,
		Deleted:   sum.Deleted,
		Skipped:   sum.Skipped,
		Failed:    sum.Failed,
		Remaining: sum.Remaining,
		Error:     res.Error,
	})
}
