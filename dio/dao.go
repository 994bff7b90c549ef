package dio

import (
	"github.com/forestrie/go-chainvault/record"
)

// Dao is a typed handle onto one entity's current value plus the metadata
// needed to stage further changes to it within a Dio transaction.
type Dao[T any] struct {
	dio      *Dio
	PK       record.PrimaryKey
	Value    T
	stageIdx int // index into dio.staged at staging time, -1 for loaded (not staged) handles
}

// Store allocates a fresh PrimaryKey, serializes value under the chain's
// configured format, and stages a new event for it. The returned Dao's
// Authorize method may still be called before Commit to declare who may
// read or write this entity going forward.
func Store[T any](d *Dio, value T) (*Dao[T], error) {
	pk, err := record.NewPrimaryKey()
	if err != nil {
		return nil, err
	}
	return storeAt(d, pk, value, nil)
}

// StoreChild is Store plus attachment: the child's metadata is stamped with
// Parent{parent, vecID} at the point of store, immutable thereafter (§4.F).
func StoreChild[T any](d *Dio, parent record.PrimaryKey, vecID record.VecID, value T) (*Dao[T], error) {
	pk, err := record.NewPrimaryKey()
	if err != nil {
		return nil, err
	}
	parentTag := record.ParentTag(parent, vecID)
	return storeAt(d, pk, value, &parentTag)
}

// Update stages a new version event for an already-allocated pk -- the same
// logical entity, a new latest value. Used to persist mutations made to a
// previously Store'd or Load'ed Dao's Value (e.g. after mutating a DaoMap
// embedded in it).
func Update[T any](d *Dio, pk record.PrimaryKey, value T) (*Dao[T], error) {
	return storeAt(d, pk, value, nil)
}

func storeAt[T any](d *Dio, pk record.PrimaryKey, value T, parentTag *record.Tag) (*Dao[T], error) {
	format := d.c.Header().Format
	payload, err := record.Marshal(format, value)
	if err != nil {
		return nil, err
	}

	tags := []record.Tag{record.DataKeyTag(pk), record.TypeNameTag(typeName(value))}
	if parentTag != nil {
		tags = append(tags, *parentTag)
	}

	e := record.Event{Metadata: record.Metadata{Tags: tags}, Data: payload}
	idx, err := d.stageIndex(pk, e)
	if err != nil {
		return nil, err
	}
	return &Dao[T]{dio: d, PK: pk, Value: value, stageIdx: idx}, nil
}

// Load resolves pk via the chain's index, runs the read pipeline (verify,
// decrypt) and deserializes the result into T.
func Load[T any](d *Dio, pk record.PrimaryKey) (*Dao[T], error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	plaintext, err := d.c.Load(d.session, pk)
	if err != nil {
		return nil, err
	}

	var value T
	if err := record.Unmarshal(d.c.Header().Format, plaintext, &value); err != nil {
		return nil, err
	}
	return &Dao[T]{dio: d, PK: pk, Value: value, stageIdx: -1}, nil
}

// Authorize declares who may read and write this entity going forward. It
// only has an effect on a Dao returned by Store/StoreChild/Update, before
// Commit has run -- calling it on a Dao returned by Load is a no-op, since
// that event has already been committed.
func (h *Dao[T]) Authorize(auth record.Authorization) {
	if h.stageIdx < 0 {
		return
	}
	// After Commit the slot may be empty or reused by a later staged write.
	h.dio.mu.Lock()
	stale := h.stageIdx >= len(h.dio.staged) || h.dio.staged[h.stageIdx].pk != h.PK
	h.dio.mu.Unlock()
	if stale {
		return
	}
	h.dio.setAuthorization(h.stageIdx, auth)
}

// Delete stages a tombstone for this Dao's key.
func (h *Dao[T]) Delete() error {
	return h.dio.Delete(h.PK)
}
