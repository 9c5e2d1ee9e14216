/*
Package guardian implements the registry of addresses allowed to approve
withdrawals from a vault.

A guardian is added by the vault owner in the PENDING state and can vote only
after it was activated, which is possible once its activation delay elapsed.
The delay gives the owner time to cancel an unwanted addition. Removal of an
active guardian is immediate. Removed records stay in the store and adding
the same address again creates a new record.

The quorum threshold of a vault is set by its owner independently of the
number of guardians.
*/
package guardian
