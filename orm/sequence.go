package orm

import (
	"encoding/binary"

	"github.com/keyward/keyward"
)

// Sequence maintains a counter, and generates a
// series of keys. Each key is greater than the last,
// both NextInt() as well as bytes.Compare() on NextVal().
type Sequence struct {
	id []byte
}

// NewSequence returns a sequence counter. Sequence is using following pattern
// to construct a key:
//
//	_s.<bucket>:<name>
func NewSequence(bucket, name string) Sequence {
	return Sequence{
		id: []byte("_s." + bucket + ":" + name),
	}
}

// NextVal increments the sequence and returns its state as 8 bytes.
func (s *Sequence) NextVal(db keyward.KVStore) ([]byte, error) {
	_, bz, err := s.increment(db, 1)
	return bz, err
}

// NextInt increments the sequence and returns its state as int.
func (s *Sequence) NextInt(db keyward.KVStore) (int64, error) {
	val, _, err := s.increment(db, 1)
	return val, err
}

// Latest returns the recently returned value of the sequence. This method does
// not modify the sequence state.
func (s *Sequence) Latest(db keyward.ReadOnlyKVStore) (int64, error) {
	raw, err := db.Get(s.id)
	if err != nil {
		return 0, err
	}
	return DecodeSequence(raw), nil
}

func (s *Sequence) increment(db keyward.KVStore, inc int64) (int64, []byte, error) {
	raw, err := db.Get(s.id)
	if err != nil {
		return 0, nil, err
	}
	val := DecodeSequence(raw) + inc
	raw = EncodeSequence(val)
	if err := db.Set(s.id, raw); err != nil {
		return 0, nil, err
	}
	return val, raw, nil
}

// DecodeSequence reads the big endian counter value. Missing value is zero.
func DecodeSequence(bz []byte) int64 {
	if len(bz) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(bz))
}

// EncodeSequence returns the 8 byte big endian form of the value, so that
// byte order matches numeric order.
func EncodeSequence(val int64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(val))
	return bz
}
