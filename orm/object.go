package orm

import (
	"reflect"

	"github.com/keyward/keyward/errors"
)

// SimpleObj is the Object used by all buckets: a key with its model.
type SimpleObj struct {
	key   []byte
	value Model
}

var _ Object = (*SimpleObj)(nil)

func NewSimpleObj(key []byte, value Model) *SimpleObj {
	return &SimpleObj{key: key, value: value}
}

func (o SimpleObj) Value() Model {
	return o.value
}

func (o SimpleObj) Key() []byte {
	return o.key
}

// Validate requires both parts and validates the model.
func (o SimpleObj) Validate() error {
	switch {
	case len(o.key) == 0:
		return errors.Field("Key", errors.ErrEmpty, "missing key")
	case o.value == nil:
		return errors.Field("Value", errors.ErrEmpty, "missing value")
	}
	return errors.Field("Value", o.value.Validate(), "invalid value")
}

func (o *SimpleObj) SetKey(key []byte) {
	o.key = key
}

// Clone returns an object with a copy of the key and a zero model of the
// same type, ready to be loaded into.
func (o *SimpleObj) Clone() Object {
	zero := reflect.New(reflect.TypeOf(o.value).Elem()).Interface().(Model)
	res := &SimpleObj{value: zero}
	if len(o.key) > 0 {
		res.key = append([]byte(nil), o.key...)
	}
	return res
}
