package orm

import (
	"strconv"

	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
)

// Counter is a simple model used by the tests.
type Counter struct {
	Count int64
	Tags  []string
}

var _ Model = (*Counter)(nil)

func (c *Counter) Marshal() ([]byte, error) {
	return codec.Marshal(c)
}

func (c *Counter) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, c)
}

func (c *Counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrState, "negative count")
	}
	return nil
}

func counterByValue(obj Object) ([]byte, error) {
	c, ok := obj.Value().(*Counter)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", obj.Value())
	}
	if c.Count == 0 {
		return nil, nil
	}
	return []byte(strconv.FormatInt(c.Count, 10)), nil
}

func counterByTags(obj Object) ([][]byte, error) {
	c, ok := obj.Value().(*Counter)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", obj.Value())
	}
	keys := make([][]byte, len(c.Tags))
	for i, t := range c.Tags {
		keys[i] = []byte(t)
	}
	return keys, nil
}
