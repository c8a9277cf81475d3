// Package game implements the authoritative table state machine for 2-7
// Lowball Triple Draw, 2-7 Lowball Single Draw and Texas Hold'em, in cash
// games and Sit-and-Go tournaments.
//
// The main type is Table, a plain document that is loaded, mutated by exactly
// one transition and saved again. Every transition takes an Env carrying the
// server clock reading and a random source, so the same inputs always produce
// the same table:
//
//	t, _ := game.NewTable("ABC234", "alice", cfg, now)
//	t.Join(env, "alice", "Alice")
//	t.BuyIn(env, "alice", 1000)
//	...
//	t.StartNextHand(env, "alice")
//	t.Act(env, "alice", game.ActionCall, 0)
//
// Side effects that leave the table (wallet credits, finished hands) are
// collected on the table and drained by the caller with DrainEffects inside
// the same storage transaction.
//
// # Architecture
//
//   - Table / Player: seats are an indexed slice; "next seat" relations are
//     computed on demand
//   - BuildPots / distribution: side pots tiered by contribution level
//   - Tournament: blind schedule, elimination order and payouts
//   - CheckInvariants: conservation, deck partition and turn rules, run by
//     the engine after every transition
package game
