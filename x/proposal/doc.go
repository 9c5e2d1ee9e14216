/*
Package proposal implements withdrawals from a vault approved by a quorum of
its guardians.

The vault owner proposes one transfer or a batch of transfers. Guardians vote
until the approval weight reaches the quorum threshold of the vault, at which
point the proposal becomes approved within the same transaction. A local
guardian contributes a weight of one. A guardian of a remote domain proves
its credential with a Merkle proof and contributes the remote weight
configured for the vault.

Anyone can execute an approved proposal. Execution is refused while the vault
is paused and moves all funds of the batch or none of them. A failed
execution leaves the proposal approved so it can be retried.

Proposals are never deleted. A pending proposal ends rejected by the owner
or expired once its voting window passed.
*/
package proposal
