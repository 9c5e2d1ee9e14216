package store

import (
	"bytes"

	"github.com/google/btree"
)

// ascendBtree returns all cached items within the [start, end) range in
// ascending order.
func ascendBtree(bt *btree.BTree, start, end []byte) []entry {
	var res []entry
	collect := func(item btree.Item) bool {
		res = append(res, item.(entry))
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(entry{key: end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(entry{key: start}, collect)
	default:
		bt.AscendRange(entry{key: start}, entry{key: end}, collect)
	}
	return res
}

// descendBtree returns all cached items within the [start, end) range in
// descending order.
func descendBtree(bt *btree.BTree, start, end []byte) []entry {
	var res []entry
	collect := func(item btree.Item) bool {
		res = append(res, item.(entry))
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Descend(collect)
	case start == nil:
		bt.DescendLessOrEqual(pivot(end), collect)
	case end == nil:
		bt.DescendGreaterThan(pivot(start), collect)
	default:
		bt.DescendRange(pivot(end), pivot(start), collect)
	}
	return res
}

// combine merges cached items with the models of the parent store. Both
// lists must be sorted in the same direction. Cached values overwrite the
// parent ones and deleted items hide them.
func combine(cached []entry, parent []Model, reverse bool) []Model {
	less := func(a, b []byte) bool {
		if reverse {
			return bytes.Compare(a, b) > 0
		}
		return bytes.Compare(a, b) < 0
	}

	res := make([]Model, 0, len(cached)+len(parent))
	var i, j int
	for i < len(cached) || j < len(parent) {
		switch {
		case j == len(parent) || (i < len(cached) && less(cached[i].key, parent[j].Key)):
			res = appendItem(res, cached[i])
			i++
		case i == len(cached) || less(parent[j].Key, cached[i].key):
			res = append(res, parent[j])
			j++
		default:
			// Same key in both, cache wins.
			res = appendItem(res, cached[i])
			i++
			j++
		}
	}
	return res
}

func appendItem(res []Model, e entry) []Model {
	if e.deleted {
		return res
	}
	return append(res, Model{Key: e.key, Value: e.value})
}
