package dio

import "github.com/forestrie/go-chainvault/record"

// DaoVec is an ordered collection of children attached under one (parent,
// vecID) bucket -- push-only from the application's point of view, since
// order is whatever the chain's index already preserves (§4.F).
type DaoVec[T any] struct {
	ParentPK record.PrimaryKey
	VecID    record.VecID
}

// NewDaoVec allocates a fresh bucket. Attach must be called with the
// parent's key once the parent itself has been stored, before Push is used.
func NewDaoVec[T any]() (DaoVec[T], error) {
	vecID, err := record.NewVecID()
	if err != nil {
		return DaoVec[T]{}, err
	}
	return DaoVec[T]{VecID: vecID}, nil
}

// Attach records which entity this vector belongs to.
func (v *DaoVec[T]) Attach(parentPK record.PrimaryKey) {
	v.ParentPK = parentPK
}

// Push stages a new child under this vector's bucket.
func (v *DaoVec[T]) Push(d *Dio, value T) (*Dao[T], error) {
	if v.ParentPK == 0 {
		return nil, ErrSaveParentFirst
	}
	return StoreChild(d, v.ParentPK, v.VecID, value)
}

// Iter returns a lazy, ordered iterator over this vector's children.
// tolerant, when true, skips entries that fail to load or deserialize
// instead of stopping iteration at the first one.
func (v *DaoVec[T]) Iter(d *Dio, tolerant bool) *DaoIter[T] {
	keys := d.c.Index().Children(v.ParentPK, v.VecID)
	return &DaoIter[T]{dio: d, keys: keys, tolerant: tolerant}
}

// DaoIter walks a fixed snapshot of child keys, loading and deserializing
// one at a time -- the Go counterpart of the source's async Iter<Dao<T>>.
type DaoIter[T any] struct {
	dio      *Dio
	keys     []record.PrimaryKey
	pos      int
	tolerant bool
	cur      *Dao[T]
	err      error
	skipped  int
}

// Next advances the iterator, returning false once exhausted or once a
// non-tolerant iterator hits a load/deserialize error (check Err in that
// case).
func (it *DaoIter[T]) Next() bool {
	for it.pos < len(it.keys) {
		pk := it.keys[it.pos]
		it.pos++

		dao, err := Load[T](it.dio, pk)
		if err != nil {
			if it.tolerant {
				it.skipped++
				continue
			}
			it.err = err
			return false
		}
		it.cur = dao
		return true
	}
	return false
}

// Value returns the Dao most recently produced by Next.
func (it *DaoIter[T]) Value() *Dao[T] { return it.cur }

// Err returns the error that stopped a non-tolerant iterator, if any.
func (it *DaoIter[T]) Err() error { return it.err }

// Skipped reports how many entries a tolerant iterator dropped.
func (it *DaoIter[T]) Skipped() int { return it.skipped }
