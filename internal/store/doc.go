// Package store provides SQLite-backed durable storage for the progression
// engine.
//
// The engine holds no locks of its own. Every guarantee it makes about
// concurrent requests for the same user rests on the primitives here:
//
//   - Atomic arithmetic: progress increments are a single
//     INSERT ... ON CONFLICT DO UPDATE ... RETURNING statement, never a
//     read followed by a write.
//   - Get-or-create: quest sets are inserted with ON CONFLICT DO NOTHING and
//     read back, so two racing generators converge on one stored set.
//   - Conditional updates: claim flags flip with
//     UPDATE ... WHERE completed = 1 AND claimed = 0 and milestone claims are
//     inserted with ON CONFLICT DO NOTHING. RowsAffected decides who pays.
//   - Optimistic transactions: rerolls check the counter value and the set
//     version inside one transaction and write both or neither.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
