package devicesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"netsync/core/normalize"
	"netsync/core/storage"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a device.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the parsed state of one device, as produced by the collector:
// one raw record list per entity kind.
type Snapshot struct {
	Device     normalize.Raw   `json:"device"`
	Vlans      []normalize.Raw `json:"vlans,omitempty"`
	Interfaces []normalize.Raw `json:"interfaces,omitempty"`
	Addresses  []normalize.Raw `json:"addresses,omitempty"`
	Inventory  []normalize.Raw `json:"inventory,omitempty"`
	MACTable   []normalize.Raw `json:"mac_table,omitempty"`
	Neighbors  []normalize.Raw `json:"neighbors,omitempty"`
	Collected  time.Time       `json:"collected,omitempty"`
}

// Hostname is the canonical name of the device, "" when the snapshot does
// not carry one.
func (s *Snapshot) Hostname() string {
	if s == nil {
		return ""
	}
	return normalize.NewDevice(s.Device).Name
}

// DecodeSnapshot parses a snapshot document.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// Source provides device snapshots.
type Source interface {
	// Load returns the latest snapshot of device.
	Load(ctx context.Context, device string) (*Snapshot, error)
	// Devices lists the devices with a snapshot.
	Devices(ctx context.Context) ([]string, error)
}

// BucketSource reads snapshots stored as <prefix><device>.json.
type BucketSource struct {
	client storage.Client
	bucket string
	prefix string
}

// NewBucketSource creates a Source over an object storage bucket.
func NewBucketSource(client storage.Client, bucket, prefix string) *BucketSource {
	return &BucketSource{client: client, bucket: bucket, prefix: prefix}
}

func (s *BucketSource) Load(ctx context.Context, device string) (*Snapshot, error) {
	var snap Snapshot
	err := storage.GetJSON(ctx, s.client, s.bucket, s.prefix+device+".json", &snap)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("%s: %w", device, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *BucketSource) Devices(ctx context.Context) ([]string, error) {
	keys, err := storage.ListKeys(ctx, s.client, s.bucket, s.prefix)
	if err != nil {
		return nil, err
	}
	var devices []string
	for _, key := range keys {
		name := strings.TrimPrefix(key, s.prefix)
		if !strings.HasSuffix(name, ".json") || strings.Contains(name, "/") {
			continue
		}
		devices = append(devices, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(devices)
	return devices, nil
}

// DirSource reads snapshots from <dir>/<device>.json. Used by the CLI.
type DirSource struct {
	dir string
}

// NewDirSource creates a Source over a local directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Load(ctx context.Context, device string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, device+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", device, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", device, err)
	}
	return DecodeSnapshot(data)
}

func (s *DirSource) Devices(ctx context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	devices := make([]string, 0, len(matches))
	for _, m := range matches {
		devices = append(devices, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	sort.Strings(devices)
	return devices, nil
}
