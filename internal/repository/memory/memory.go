// Package memory is an in-process implementation of the repository
// interfaces. It backs handler and service tests and the "memory" database
// driver. Records are stored as BSON documents so that reads never alias
// writes and values round-trip exactly as they would through MongoDB.
package memory

import (
	"sync"

	"alcyxob/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewRepositories builds an empty in-memory store.
func NewRepositories() repository.Repositories {
	return repository.Repositories{
		Users:         NewUserRepository(),
		Programs:      NewProgramRepository(),
		Assignments:   NewAssignmentRepository(),
		Subscriptions: NewSubscriptionRepository(),
		Requests:      NewRequestRepository(),
		CheckIns:      NewCheckInRepository(),
		Library:       NewLibraryRepository(),
		Media:         NewMediaRepository(),
	}
}

// table is a mutex-guarded collection of encoded documents keyed by id.
type table[T any] struct {
	mutex sync.RWMutex
	rows  map[primitive.ObjectID][]byte
	// order keeps insertion order for stable scans.
	order []primitive.ObjectID
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: map[primitive.ObjectID][]byte{}}
}

func encode(v interface{}) []byte {
	raw, err := bson.Marshal(v)
	if err != nil {
		// Only domain structs are stored; they always encode.
		panic(err)
	}
	return raw
}

func decode[T any](raw []byte) T {
	var v T
	if err := bson.Unmarshal(raw, &v); err != nil {
		panic(err)
	}
	return v
}

// put stores v under id. Callers hold the write lock.
func (t *table[T]) put(id primitive.ObjectID, v *T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = encode(v)
}

// get returns a fresh copy of the row. Callers hold a lock.
func (t *table[T]) get(id primitive.ObjectID) (*T, error) {
	raw, ok := t.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v := decode[T](raw)
	return &v, nil
}

// filter returns copies of the rows matching keep, in insertion order.
// Callers hold a lock.
func (t *table[T]) filter(keep func(*T) bool) []T {
	out := []T{}
	for _, id := range t.order {
		raw, ok := t.rows[id]
		if !ok {
			continue
		}
		v := decode[T](raw)
		if keep == nil || keep(&v) {
			out = append(out, v)
		}
	}
	return out
}

func (t *table[T]) remove(id primitive.ObjectID) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}
