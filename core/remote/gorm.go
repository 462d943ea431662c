package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ObjectRecord is the row model of GormStore. All kinds share one table;
// the payload is stored as JSON and the columns hold what queries filter on.
type ObjectRecord struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Kind         string    `gorm:"size:32;not null;index:idx_netsync_kind_key"`
	Key          string    `gorm:"size:255;index:idx_netsync_kind_key"`
	DeviceID     int64     `gorm:"index"`
	PeerDeviceID int64     `gorm:"index"`
	Fields       Fields    `gorm:"serializer:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName pins the table name independent of naming strategy.
func (ObjectRecord) TableName() string {
	return "netsync_objects"
}

// ObjectColumns are the columns GormStore reads and writes.
var ObjectColumns = []string{"id", "kind", "key", "device_id", "peer_device_id", "fields", "created_at", "updated_at"}

// GormStore is a system-of-record binding over a SQL database (MySQL in
// production, SQLite for tests and local runs). Bulk calls run in one
// transaction so a failed bulk call changes nothing.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the objects table.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&ObjectRecord{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", ObjectRecord{}.TableName(), err)
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, kind Kind, filter Filter) ([]Object, error) {
	q := s.db.WithContext(ctx).Where("kind = ?", string(kind))
	if _, ok := filter["device_id"]; ok {
		id := Fields(filter).Int("device_id")
		if kind == KindCable {
			q = q.Where("device_id = ? OR peer_device_id = ?", id, id)
		} else {
			q = q.Where("device_id = ?", id)
		}
	}

	var rows []ObjectRecord
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, &TransportError{Op: "list " + string(kind), Err: err}
	}

	out := make([]Object, 0, len(rows))
	for _, row := range rows {
		obj := row.object()
		if filter.Match(obj) {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (s *GormStore) BulkCreate(ctx context.Context, kind Kind, items []Fields) ([]int64, error) {
	if len(items) == 0 {
		return nil, nil
	}
	rows := make([]ObjectRecord, 0, len(items))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		staged := make(map[string]struct{}, len(items))
		for i, item := range items {
			if err := validateRow(tx, kind, item, 0, staged); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			rows = append(rows, newRecord(kind, item))
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, classify("bulk create "+string(kind), err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (s *GormStore) Create(ctx context.Context, kind Kind, item Fields) (int64, error) {
	ids, err := s.BulkCreate(ctx, kind, []Fields{item})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func (s *GormStore) BulkUpdate(ctx context.Context, kind Kind, patches []Patch) error {
	if len(patches) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, p := range patches {
			var row ObjectRecord
			if err := tx.Where("kind = ?", string(kind)).First(&row, p.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("item %d: %s %d: %w", i, kind, p.ID, ErrNotFound)
				}
				return err
			}
			merged := row.Fields.Clone()
			for k, v := range p.Fields {
				merged[k] = v
			}
			if err := validateRow(tx, kind, merged, row.ID, nil); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			updated := newRecord(kind, merged)
			updated.ID = row.ID
			updated.CreatedAt = row.CreatedAt
			if err := tx.Save(&updated).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return classify("bulk update "+string(kind), err)
}

func (s *GormStore) Update(ctx context.Context, kind Kind, patch Patch) error {
	return s.BulkUpdate(ctx, kind, []Patch{patch})
}

func (s *GormStore) BulkDelete(ctx context.Context, kind Kind, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("kind = ? AND id IN ?", string(kind), ids).Delete(&ObjectRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return fmt.Errorf("%s: deleted %d of %d: %w", kind, res.RowsAffected, len(ids), ErrNotFound)
		}
		return nil
	})
	return classify("bulk delete "+string(kind), err)
}

func (s *GormStore) Delete(ctx context.Context, kind Kind, id int64) error {
	return s.BulkDelete(ctx, kind, []int64{id})
}

func (s *GormStore) GetOrCreate(ctx context.Context, kind Kind, key string, extra Fields) (int64, error) {
	if strings.TrimSpace(key) == "" {
		return 0, &ValidationError{Kind: kind, Field: KeyField(kind), Message: "key must not be empty"}
	}
	item, err := referenceItem(kind, key, extra)
	if err != nil {
		return 0, err
	}
	want := uniqueKey(kind, item)
	if want == "" {
		return 0, &ValidationError{Kind: kind, Message: "kind has no natural key"}
	}

	var id int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row ObjectRecord
		err := tx.Where("kind = ? AND `key` = ?", string(kind), want).First(&row).Error
		if err == nil {
			id = row.ID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := validateRow(tx, kind, item, 0, nil); err != nil {
			return err
		}
		created := newRecord(kind, item)
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		id = created.ID
		return nil
	})
	if err != nil {
		return 0, classify("get or create "+string(kind), err)
	}
	return id, nil
}

func newRecord(kind Kind, item Fields) ObjectRecord {
	row := ObjectRecord{
		Kind:   string(kind),
		Key:    uniqueKey(kind, item),
		Fields: item.Clone(),
	}
	if kind == KindCable {
		row.DeviceID = item.Int("a_device_id")
		row.PeerDeviceID = item.Int("b_device_id")
	} else {
		row.DeviceID = item.Int("device_id")
	}
	return row
}

func (r ObjectRecord) object() Object {
	fields := r.Fields
	if fields == nil {
		fields = Fields{}
	}
	return Object{ID: r.ID, Kind: Kind(r.Kind), Fields: fields}
}

// validateRow applies the required-field, reference and uniqueness rules
// inside the caller's transaction.
func validateRow(tx *gorm.DB, kind Kind, item Fields, self int64, staged map[string]struct{}) error {
	for _, f := range requiredFields[kind] {
		if missing(item, f) {
			return &ValidationError{Kind: kind, Field: f, Message: "this field is required"}
		}
	}
	for k := range item {
		if !strings.HasSuffix(k, "_id") {
			continue
		}
		ref := item.Int(k)
		if ref == 0 {
			continue
		}
		var n int64
		if err := tx.Model(&ObjectRecord{}).Where("id = ?", ref).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return &ValidationError{Kind: kind, Field: k, Message: fmt.Sprintf("related object %d does not exist", ref)}
		}
	}

	key := uniqueKey(kind, item)
	if key == "" {
		return nil
	}
	if staged != nil {
		if _, dup := staged[key]; dup {
			return &ValidationError{Kind: kind, Message: "duplicate object in request: " + key}
		}
		staged[key] = struct{}{}
	}
	var n int64
	if err := tx.Model(&ObjectRecord{}).Where("kind = ? AND `key` = ? AND id <> ?", string(kind), key, self).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &ValidationError{Kind: kind, Message: "object already exists: " + key}
	}
	return nil
}

// classify keeps validation and not-found errors as they are and reports
// everything else as a transport failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsValidation(err) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

var _ Store = (*GormStore)(nil)
