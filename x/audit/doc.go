/*
Package audit keeps the append-only log of every custody state transition.

Each event is stored once under a monotonically increasing index and is never
changed afterwards. Events are indexed by vault, so the history of a single
vault can be read without scanning the whole log. Emit additionally returns
the event as ABCI tags so that block observers can follow the stream without
querying the state.
*/
package audit
