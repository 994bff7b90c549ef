package dio

import "github.com/forestrie/go-chainvault/record"

// DaoRef is a lazy, serializable reference to an entity stored elsewhere on
// the chain -- a PrimaryKey the caller resolves on demand rather than
// eagerly loading (§4.F).
type DaoRef[T any] struct {
	PK record.PrimaryKey
}

// IsZero reports whether the reference was never set.
func (r DaoRef[T]) IsZero() bool { return r.PK == 0 }

// Resolve loads the referenced entity through d.
func (r DaoRef[T]) Resolve(d *Dio) (*Dao[T], error) {
	return Load[T](d, r.PK)
}
