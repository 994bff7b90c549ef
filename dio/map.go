package dio

import "github.com/forestrie/go-chainvault/record"

// DaoMap embeds a K -> child-PrimaryKey lookup directly in its containing
// entity's serialized payload; the values themselves live as separate
// events, children of the same parent under a shared vecID (§4.F). It is
// grounded on the source's DaoMap<K, V>, minus the Weak<Dio>/async plumbing
// Go's ownership and unexported-field rules make unnecessary: Lookup,
// ParentPK and VecID are all exported and so all serialized with the
// containing entity.
type DaoMap[K comparable, V any] struct {
	Lookup   map[K]DaoRef[V]
	ParentPK record.PrimaryKey
	VecID    record.VecID
}

// NewDaoMap allocates an empty map with a fresh bucket id. Attach must be
// called with the parent's key, once the parent has been stored, before
// Insert/Remove are used.
func NewDaoMap[K comparable, V any]() (DaoMap[K, V], error) {
	vecID, err := record.NewVecID()
	if err != nil {
		return DaoMap[K, V]{}, err
	}
	return DaoMap[K, V]{Lookup: map[K]DaoRef[V]{}, VecID: vecID}, nil
}

// Attach records which entity this map's values are children of.
func (m *DaoMap[K, V]) Attach(parentPK record.PrimaryKey) {
	m.ParentPK = parentPK
}

// Len reports how many keys the map currently holds.
func (m *DaoMap[K, V]) Len() int { return len(m.Lookup) }

// Keys returns the map's current key set in unspecified order.
func (m *DaoMap[K, V]) Keys() []K {
	out := make([]K, 0, len(m.Lookup))
	for k := range m.Lookup {
		out = append(out, k)
	}
	return out
}

// Get resolves and loads the value stored under key, if any.
func (m *DaoMap[K, V]) Get(d *Dio, key K) (*Dao[V], bool, error) {
	ref, ok := m.Lookup[key]
	if !ok {
		return nil, false, nil
	}
	dao, err := ref.Resolve(d)
	if err != nil {
		return nil, false, err
	}
	return dao, true, nil
}

// Insert stages value as a new child event under this map's (parent, vecID)
// bucket and records it in Lookup, tombstoning whatever key previously
// held. The caller is responsible for persisting the mutated Lookup by
// calling dio.Update on the Dao that embeds this DaoMap.
func (m *DaoMap[K, V]) Insert(d *Dio, key K, value V) (*Dao[V], error) {
	if m.ParentPK == 0 {
		return nil, ErrSaveParentFirst
	}
	child, err := StoreChild(d, m.ParentPK, m.VecID, value)
	if err != nil {
		return nil, err
	}
	if old, ok := m.Lookup[key]; ok {
		if err := d.Delete(old.PK); err != nil {
			return nil, err
		}
	}
	if m.Lookup == nil {
		m.Lookup = map[K]DaoRef[V]{}
	}
	m.Lookup[key] = DaoRef[V]{PK: child.PK}
	return child, nil
}

// Remove tombstones the value under key and drops it from Lookup, if present.
func (m *DaoMap[K, V]) Remove(d *Dio, key K) error {
	ref, ok := m.Lookup[key]
	if !ok {
		return nil
	}
	delete(m.Lookup, key)
	return d.Delete(ref.PK)
}

// Clear tombstones every value currently in the map and empties Lookup.
func (m *DaoMap[K, V]) Clear(d *Dio) error {
	for key, ref := range m.Lookup {
		if err := d.Delete(ref.PK); err != nil {
			return err
		}
		delete(m.Lookup, key)
	}
	return nil
}
