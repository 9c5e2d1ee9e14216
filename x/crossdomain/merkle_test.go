package crossdomain

import (
	"testing"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/keywardtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeafEncoding(t *testing.T) {
	addr := keyward.Address(make([]byte, 20))
	addr[19] = 0xaa

	want := make([]byte, 0, 52)
	want = append(want, addr...)
	tokenID := make([]byte, 32)
	tokenID[31] = 7
	want = append(want, tokenID...)

	assert.Equal(t, crypto.Keccak256(want), Leaf(addr, 7))
	assert.NotEqual(t, Leaf(addr, 7), Leaf(addr, 8))
}

func TestBuildTreeProvesEveryLeaf(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8} {
		leaves := make([][]byte, n)
		for i := range leaves {
			leaves[i] = Leaf(keywardtest.NewCondition().Address(), uint64(i))
		}
		root, paths, depth := BuildTree(leaves)
		require.Len(t, paths, n)
		for i, leaf := range leaves {
			assert.NoError(t, VerifyPath(leaf, paths[i], root, depth), "%d leaves, leaf %d", n, i)
		}
	}
}

func TestBuildTreeSingleLeaf(t *testing.T) {
	guardian := keywardtest.NewCondition().Address()
	leaf := Leaf(guardian, 1)
	root, paths, depth := BuildTree([][]byte{leaf})
	require.Equal(t, uint32(1), depth)
	require.Len(t, paths[0], 1)
	assert.Equal(t, make([]byte, crypto.HashSize), paths[0][0].Hash)
	assert.NotEqual(t, leaf, root)
	assert.NoError(t, VerifyPath(leaf, paths[0], root, depth))

	// a domain with a single guardian can be stored and proven
	now := keyward.UnixTime(1630497600)
	snap := Snapshot{
		DomainID:     "remote",
		Sequence:     1,
		Root:         root,
		Depth:        depth,
		ValidFrom:    now,
		RegisteredAt: now,
		Attestors:    []keyward.Address{keywardtest.NewCondition().Address()},
	}
	assert.NoError(t, snap.Validate())
	proof := RemoteGuardianProof{DomainID: "remote", SnapshotID: 1, Guardian: guardian, TokenID: 1, Path: paths[0], ClaimedAt: now}
	assert.NoError(t, proof.Validate())
}

func TestVerifyPathFailsClosed(t *testing.T) {
	leaves := make([][]byte, 4)
	for i := range leaves {
		leaves[i] = Leaf(keywardtest.NewCondition().Address(), uint64(i))
	}
	root, paths, depth := BuildTree(leaves)
	require.Equal(t, uint32(2), depth)

	flipped := append([]ProofStep(nil), paths[1]...)
	flipped[0].Left = !flipped[0].Left

	tampered := append([]ProofStep(nil), paths[1]...)
	tampered[1] = ProofStep{Hash: crypto.Keccak256([]byte("other")), Left: tampered[1].Left}

	cases := map[string]struct {
		leaf  []byte
		path  []ProofStep
		depth uint32
	}{
		"other leaf":      {leaf: leaves[0], path: paths[1], depth: depth},
		"flipped order":   {leaf: leaves[1], path: flipped, depth: depth},
		"tampered step":   {leaf: leaves[1], path: tampered, depth: depth},
		"path too short":  {leaf: leaves[1], path: paths[1][:1], depth: depth},
		"path too long":   {leaf: leaves[1], path: append(append([]ProofStep(nil), paths[1]...), paths[1][0]), depth: depth},
		"depth mismatch":  {leaf: leaves[1], path: paths[1], depth: depth + 1},
		"truncated hash":  {leaf: leaves[1], path: []ProofStep{{Hash: paths[1][0].Hash[:31]}, paths[1][1]}, depth: depth},
		"empty path used": {leaf: root, path: nil, depth: depth},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := VerifyPath(tc.leaf, tc.path, root, tc.depth)
			assert.True(t, ErrProofMismatch.Is(err), "%+v", err)
		})
	}
}
