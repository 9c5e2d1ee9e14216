/*
Package pause implements the per vault emergency halt switch.

A paused vault rejects withdrawals. Voting on proposals and deposits are not
affected. Every change of the pause state is appended to a per vault history
log that is never modified.
*/
package pause
