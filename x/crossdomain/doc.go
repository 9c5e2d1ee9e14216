/*
Package crossdomain verifies that an address holds a guardian credential on a
remote domain.

A remote domain publishes the set of its guardian credentials as the root of
a Merkle tree. A relay submits that root as a snapshot together with
signatures of the domain attestors. The snapshot is trusted once the number
of distinct attestor signatures reaches the confirmation threshold of the
domain. The latest trusted snapshot of a domain is the current one.

A remote guardian proves membership with the path from its leaf to the
current snapshot root. The leaf is

	keccak256(guardian address || token ID as 32 byte big endian)

and every path step hashes the running value with a sibling, placing the
sibling on the left when the step says so. Any mismatch rejects the proof.
*/
package crossdomain
