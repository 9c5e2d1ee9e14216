package orm

import (
	"github.com/keyward/keyward"
)

// Model is implemented by any entity that can be stored in a bucket.
type Model interface {
	keyward.Persistent
	// Validate returns error if the model is not in a valid state to save
	// to the db (eg. field missing, out of range, ...)
	Validate() error
}

// Object is what is stored in the bucket
// Key is joined with the prefix to set the full key
// Value is the data stored
type Object interface {
	Keyed
	Cloneable
	Validate() error
	Value() Model
}

// Reader defines an interface that allows reading objects from the db
type Reader interface {
	Get(db keyward.ReadOnlyKVStore, key []byte) (Object, error)
}

// Keyed is anything that can identify itself
type Keyed interface {
	Key() []byte
	SetKey([]byte)
}

// Cloneable will create a new object that can be loaded into
type Cloneable interface {
	Clone() Object
}

// Indexer calculates the secondary index key for a given object
type Indexer func(Object) ([]byte, error)

// MultiKeyIndexer calculates the secondary index keys for a given object
type MultiKeyIndexer func(Object) ([][]byte, error)
