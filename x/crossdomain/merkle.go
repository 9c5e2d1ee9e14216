package crossdomain

import (
	"bytes"
	"encoding/binary"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/errors"
)

// MaxTreeDepth limits the length of a membership proof.
const MaxTreeDepth = 32

// ProofStep is a single sibling hash of a Merkle path. Left is true when the
// sibling is the left operand of the hash.
type ProofStep struct {
	Hash []byte `json:"hash"`
	Left bool   `json:"left"`
}

// Leaf returns the tree leaf of a guardian credential.
func Leaf(guardian keyward.Address, tokenID uint64) []byte {
	var id [32]byte
	binary.BigEndian.PutUint64(id[24:], tokenID)
	return crypto.Keccak256(guardian, id[:])
}

// ComputeRoot walks the path up from the leaf.
func ComputeRoot(leaf []byte, path []ProofStep) ([]byte, error) {
	h := leaf
	for i, step := range path {
		if len(step.Hash) != crypto.HashSize {
			return nil, errors.Wrapf(ErrProofMismatch, "step %d hash length %d", i, len(step.Hash))
		}
		if step.Left {
			h = crypto.Keccak256(step.Hash, h)
		} else {
			h = crypto.Keccak256(h, step.Hash)
		}
	}
	return h, nil
}

// VerifyPath returns ErrProofMismatch unless the path of the expected depth
// leads from the leaf to the root.
func VerifyPath(leaf []byte, path []ProofStep, root []byte, depth uint32) error {
	if uint32(len(path)) != depth {
		return errors.Wrapf(ErrProofMismatch, "path length %d, tree depth %d", len(path), depth)
	}
	got, err := ComputeRoot(leaf, path)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, root) {
		return errors.Wrap(ErrProofMismatch, "root")
	}
	return nil
}

// BuildTree computes the root and the membership path of every leaf. The
// leaf list is padded with zero hashes to the next power of two, at least
// two, so the depth of the tree is the binary logarithm of the padded size
// and never zero. A root is therefore never a leaf.
func BuildTree(leaves [][]byte) (root []byte, paths [][]ProofStep, depth uint32) {
	size, depth := 2, uint32(1)
	for size < len(leaves) {
		size *= 2
		depth++
	}
	level := make([][]byte, size)
	for i := range level {
		if i < len(leaves) {
			level[i] = leaves[i]
		} else {
			level[i] = make([]byte, crypto.HashSize)
		}
	}

	paths = make([][]ProofStep, len(leaves))
	pos := make([]int, len(leaves))
	for i := range pos {
		pos[i] = i
	}
	for len(level) > 1 {
		for i := range paths {
			p := pos[i]
			if p%2 == 0 {
				paths[i] = append(paths[i], ProofStep{Hash: level[p+1]})
			} else {
				paths[i] = append(paths[i], ProofStep{Hash: level[p-1], Left: true})
			}
			pos[i] = p / 2
		}
		next := make([][]byte, len(level)/2)
		for i := range next {
			next[i] = crypto.Keccak256(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0], paths, depth
}
