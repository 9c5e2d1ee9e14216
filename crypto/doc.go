/*
Package crypto provides the secp256k1 keys used to sign transactions and
off-line approvals.

Identities are 20 byte addresses derived from the keccak256 hash of the
uncompressed public key, the same way on every domain, so that a guardian is
recognised by a single address wherever it signs.
*/
package crypto
