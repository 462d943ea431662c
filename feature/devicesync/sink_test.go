package devicesync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"netsync/core/reconcile"
	"netsync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

type eventRecorder struct {
	subjects []string
	payloads [][]byte
}

func (r *eventRecorder) Publish(_ context.Context, subject string, payload []byte) error {
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *eventRecorder) Close() {}

type failingSink struct{}

func (failingSink) Publish(context.Context, *Result) error { return errors.New("sink down") }

// TestLogSink tests that failed and pending items are logged.
func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(core))

	require.NoError(t, sink.Publish(context.Background(), previewResult()))

	failed := logs.FilterMessage("item failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "gi1/0/4", failed[0].ContextMap()["identity"])
	assert.Equal(t, "interface", failed[0].ContextMap()["kind"])
	assert.Equal(t, 1, logs.FilterMessage("item pending").Len())
}

// TestArchiveSink tests that results are stored per device and run.
func TestArchiveSink(t *testing.T) {
	m := new(mocks.Client)
	var body []byte
	m.On("PutObject", mock.Anything, "netsync", "reports/sw1/5f0c3e1e-1111-4d7a-9a43-2f4f1b7c0001.json", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			body, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	sink := NewArchiveSink(m, "netsync", "reports/")
	require.NoError(t, sink.Publish(context.Background(), previewResult()))
	m.AssertExpectations(t)

	var got Result
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "sw1", got.Device)
	assert.Len(t, got.Reports, 3)
	assert.Equal(t, 1, got.Summary.Deleted)

	assert.Equal(t, "reports/_unknown/x.json", sink.Key(&Result{RunID: "x"}))
}

// TestEventSink tests the published summary.
func TestEventSink(t *testing.T) {
	rec := &eventRecorder{}
	sink := NewEventSink(rec, "netsync.report")

	require.NoError(t, sink.Publish(context.Background(), previewResult()))

	require.Len(t, rec.subjects, 1)
	assert.Equal(t, "netsync.report.sw1", rec.subjects[0])
	var ev Event
	require.NoError(t, json.Unmarshal(rec.payloads[0], &ev))
	assert.Equal(t, Event{
		RunID:     "5f0c3e1e-1111-4d7a-9a43-2f4f1b7c0001",
		Device:    "sw1",
		DryRun:    true,
		Created:   1,
		Updated:   1,
		Deleted:   1,
		Skipped:   2,
		Failed:    1,
		Remaining: 1,
	}, ev)
}

// TestSyncer_Sinks tests that every sink sees the result and a failing
// sink does not fail the run.
func TestSyncer_Sinks(t *testing.T) {
	rec := &eventRecorder{}
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewSyncer(seed(t),
		WithLogger(zap.New(core)),
		WithSinks(failingSink{}, NewEventSink(rec, "netsync.report")),
	)

	res := s.Run(context.Background(), fixture(), true)

	assert.True(t, res.OK())
	assert.Len(t, rec.subjects, 1)
	assert.Equal(t, 1, logs.FilterMessage("report sink failed").Len())
	assert.Equal(t, reconcile.OutcomeCreated, res.Reports[0].Details[0].Outcome)
}
