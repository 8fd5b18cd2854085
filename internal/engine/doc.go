// Package engine implements the progression engine: per-user quest sets,
// progress tracking, rerolls, achievement ladders and reward settlement.
//
// ARCHITECTURE:
//
// The engine is a library invoked in-process by short-lived request
// handlers, one per user command or gameplay event. It keeps no locks and no
// per-user state in memory. Every guarantee that must hold under concurrent
// requests for the same user is enforced by a single conditional statement
// or transaction in the store:
//
//   - Track: atomic upsert-with-arithmetic per (user, instance, period) and
//     per (user, achievement).
//   - GetOrGenerate: deterministic generation followed by an insert that
//     ignores conflicts; racing writers store identical sets.
//   - Reroll: counter bump and slot swap in one optimistic transaction.
//   - ClaimAll: conditional claim flips and milestone inserts in one
//     transaction; RowsAffected decides what is paid.
//
// The only in-process state is a cache of generator output, which is pure
// and therefore never stale.
//
// Rewards are never credited here. Settlement returns a RewardBundle that the
// caller hands to its ledger.
package engine
