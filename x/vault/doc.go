/*
Package vault implements the value-holding accounts that guardians protect.

A vault is owned by a single address and holds a set of asset balances.
Anyone can deposit into a vault at any time. Funds leave a vault only through
TransferBatch, which the proposal extension calls once a withdrawal was
approved by the guardians. Recipients are credited in a wallet bucket.

Timing and weight settings of a vault fall back to the global policy for any
value that is left unset.
*/
package vault
