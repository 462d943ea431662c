package reconcile

// Record is a local canonical record.
type Record interface {
	// Identity is the canonical matching key. It must be computable from the
	// record alone.
	Identity() string

	// Values returns the fields the record reports, keyed by field name.
	// A missing key means the field was not reported.
	Values() map[string]any
}

// Dependent is implemented by records whose creation requires other records
// of the same kind to exist first (e.g. a LAG member and its aggregate).
type Dependent interface {
	// Requires returns the identities this record references.
	Requires() []string
}

// Projection is a read-only view of one remote object, exposing only the
// fields the comparison needs.
type Projection interface {
	// ID is the remote identifier.
	ID() int64

	// Identity is computed the same way as the local Record's.
	Identity() string

	// Values returns the compared fields with references resolved to names.
	Values() map[string]any
}

// View is the Projection used by every kind adapter.
type View struct {
	RemoteID int64
	Key      string
	Fields   map[string]any
}

func (v View) ID() int64              { return v.RemoteID }
func (v View) Identity() string       { return v.Key }
func (v View) Values() map[string]any { return v.Fields }

// ChangeKind classifies one ChangeItem.
type ChangeKind string

const (
	// ChangeCreate creates a local record missing remotely.
	ChangeCreate ChangeKind = "create"
	// ChangeUpdate patches a remote object whose fields differ.
	ChangeUpdate ChangeKind = "update"
	// ChangeDelete removes a remote object without local counterpart.
	ChangeDelete ChangeKind = "delete"
	// ChangeSkip leaves the item alone; Reason says why.
	ChangeSkip ChangeKind = "skip"
)

// Skip reasons.
const (
	ReasonNoChanges       = "no changes"
	ReasonUpdateDisabled  = "update disabled"
	ReasonCreateDisabled  = "create disabled"
	ReasonExcluded        = "excluded"
	ReasonSuperseded      = "superseded by later record"
	ReasonEmptyIdentity   = "empty identity"
	ReasonDependencyCycle = "dependency cycle"
)

// FieldChange is one differing field of an update.
type FieldChange struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// ChangeItem is the classification of one identity.
type ChangeItem struct {
	// Identity is the canonical identity the item was matched on.
	Identity string `json:"identity"`

	// Kind is the planned action.
	Kind ChangeKind `json:"kind"`

	// Local is the local record, nil for deletes and remote-only skips.
	Local Record `json:"-"`

	// Remote is the matched remote projection, nil for creates.
	Remote Projection `json:"-"`

	// Changes lists the differing fields of an update.
	Changes []FieldChange `json:"changes,omitempty"`

	// Reason explains a skip.
	Reason string `json:"reason,omitempty"`
}

// RemoteID returns the id of the matched remote object, 0 when none.
func (i ChangeItem) RemoteID() int64 {
	if i.Remote == nil {
		return 0
	}
	return i.Remote.ID()
}

// ChangeSet is the full classification of one entity kind.
type ChangeSet struct {
	// Kind names the entity kind.
	Kind string `json:"kind"`

	Create []ChangeItem `json:"create"`
	Update []ChangeItem `json:"update"`
	Delete []ChangeItem `json:"delete"`
	Skip   []ChangeItem `json:"skip"`

	// Existing maps the identity of every remote object that survives the
	// run to its id. Dependencies resolve against it.
	Existing map[string]int64 `json:"-"`

	Summary Summary `json:"summary"`
}

// Summary counts a ChangeSet by kind.
type Summary struct {
	Create int `json:"create"`
	Update int `json:"update"`
	Delete int `json:"delete"`
	Skip   int `json:"skip"`
}

// Empty reports whether the set plans no mutation.
func (cs *ChangeSet) Empty() bool {
	return len(cs.Create)+len(cs.Update)+len(cs.Delete) == 0
}

// Items returns every item in create, update, delete, skip order.
func (cs *ChangeSet) Items() []ChangeItem {
	out := make([]ChangeItem, 0, len(cs.Create)+len(cs.Update)+len(cs.Delete)+len(cs.Skip))
	out = append(out, cs.Create...)
	out = append(out, cs.Update...)
	out = append(out, cs.Delete...)
	return append(out, cs.Skip...)
}

func (cs *ChangeSet) add(item ChangeItem) {
	switch item.Kind {
	case ChangeCreate:
		cs.Create = append(cs.Create, item)
		cs.Summary.Create++
	case ChangeUpdate:
		cs.Update = append(cs.Update, item)
		cs.Summary.Update++
	case ChangeDelete:
		cs.Delete = append(cs.Delete, item)
		cs.Summary.Delete++
	default:
		cs.Skip = append(cs.Skip, item)
		cs.Summary.Skip++
	}
}

// Options controls Compare.
type Options struct {
	// CreateMissing creates local records absent remotely.
	CreateMissing bool

	// UpdateExisting patches matched remote objects whose fields differ.
	UpdateExisting bool

	// Cleanup deletes remote objects without local counterpart.
	Cleanup bool

	// Fields is the list of fields diffed on update. Fields absent from a
	// local record are never diffed.
	Fields []string

	// Comparators overrides the equality used for individual fields.
	// Fields without an entry use Loose.
	Comparators map[string]Comparator

	// Exclude lists glob patterns on canonical identity. Matching items are
	// skipped on the create, update and delete paths alike.
	Exclude []string

	// Keep maps identities of remote objects cleanup must not delete to the
	// reason they are kept.
	Keep map[string]string
}

// DefaultOptions creates and updates but never deletes.
func DefaultOptions() Options {
	return Options{CreateMissing: true, UpdateExisting: true}
}
