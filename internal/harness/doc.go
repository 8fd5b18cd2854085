// Package harness runs YAML scenarios against a real engine.
//
// Each scenario gets a fresh in-memory store, a manual clock and sequential
// settlement ids, so the same scenario always produces the same trace.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	user: alice
//	now: "2024-01-01T12:00:00Z"
//	catalog: catalogs/small.yaml   # relative to the scenario; default catalog if empty
//	rules:
//	  daily: { slots: 3, max_rerolls: 1, reroll_cost: { gems: 50 } }
//	setup:
//	  - action: track
//	    args: { key: rolls, amount: 10 }
//	flow:
//	  - action: claim
//	    args: {}
//	    expect:
//	      code: OK
//	      result: { reward: { coins: 100 } }
//	assertions:
//	  - type: trace_count
//	    action: claim
//	    code: NOTHING_TO_CLAIM
//	    count: 1
//	  - type: final_state
//	    table: reroll_counters
//	    where: { quest_type: daily }
//	    expect: { count: 1 }
//
// # Actions
//
//   - quests {type}: list the current set with progress
//   - track {key, amount}: report a gameplay event
//   - increment_quest {type, slot | template, amount}: advance one instance
//   - increment_achievement {id, amount}: advance one achievement
//   - reroll {type, slot, afford}: reroll a slot; afford defaults to true
//   - reroll_status {type}: reroll budget
//   - claim {}: settle everything payable
//   - claim_quest {type, slot | template}: settle one instance
//   - achievements {}: achievement status
//   - advance {days, hours}: move the clock forward
//   - sweep {}: run one janitor sweep
//
// Every step records its action, args, result code ("OK" or an engine error
// code) and result in the trace. Expectations and assertions match results
// by subset: only the keys they name are compared.
//
// # Assertion Types
//
//   - trace_contains: an action with the given code and result subset ran
//   - trace_order: actions ran in the given order
//   - trace_count: an action (optionally with a code) ran exactly N times
//   - final_state: exactly one row of a table matches where and expect
//   - row_count: a table holds exactly N rows matching where
package harness
