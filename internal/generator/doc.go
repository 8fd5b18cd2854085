// Package generator derives per-user quest sets from catalog templates.
//
// Generation is a pure function of (user id, period id, template slice, slot
// count). Nothing here reads a clock or the Go runtime's random source, so a
// set can be regenerated on any host at any time and comes out identical.
//
// # Pinned seed algorithm
//
// The seed key is NFC(userID) + "|" + periodID, hashed over its UTF-8 bytes:
//
//	h := int32(0)
//	for each byte b: h = h*31 + int32(b)   // two's-complement wraparound
//
// The absolute value of h reduced modulo 2^31-1 is the seed (0 maps to 1).
// Pseudo-random values come from the Park-Miller generator:
//
//	state = state * 16807 mod (2^31 - 1)
//	value = (state - 1) / (2^31 - 2)       // in [0, 1)
//
// Slot i draws from a fresh generator seeded with seed + i*7919. A reroll
// draws from seed + (count+1)*104729 + slot*7919, where count is the number
// of rerolls already spent in the period.
//
// Changing any constant here changes every user's quests mid-period.
package generator
