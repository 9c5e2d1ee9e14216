package app

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
)

// ResultSet holds the keys or the values returned by a query. Query
// responses carry one ResultSet of keys and one of values, both of the same
// length.
type ResultSet struct {
	Results [][]byte `json:"results"`
}

func (r *ResultSet) Marshal() ([]byte, error) {
	return codec.Marshal(r)
}

func (r *ResultSet) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, r)
}

// ResultsFromKeys returns a ResultSet of all keys
// given a set of models
func ResultsFromKeys(models []keyward.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Key
	}
	return &ResultSet{Results: res}
}

// ResultsFromValues returns a ResultSet of all values
// given a set of models
func ResultsFromValues(models []keyward.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Value
	}
	return &ResultSet{Results: res}
}

// JoinResults inverts ResultsFromKeys and ResultsFromValues
// and makes then a consistent whole again
func JoinResults(keys, values *ResultSet) ([]keyward.Model, error) {
	kref, vref := keys.Results, values.Results
	if len(kref) != len(vref) {
		return nil, errors.Wrapf(errors.ErrState, "%d keys and %d values", len(kref), len(vref))
	}
	mods := make([]keyward.Model, len(kref))
	for i := range mods {
		mods[i] = keyward.Model{
			Key:   kref[i],
			Value: vref[i],
		}
	}
	return mods, nil
}

// UnmarshalOneResult will parse a resultset, and
// it if is not empty, unmarshal the first result into o
func UnmarshalOneResult(bz []byte, o keyward.Persistent) error {
	var res ResultSet
	if err := res.Unmarshal(bz); err != nil {
		return err
	}
	if len(res.Results) == 0 {
		return nil
	}
	return o.Unmarshal(res.Results[0])
}
