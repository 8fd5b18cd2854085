// Package model defines the value types shared by the progression engine.
//
// Templates and achievement definitions are catalog data and never change at
// runtime. Quest instances are derived from templates for one user in one
// period. Rewards are fixed-shape: every field is always present and zero
// when unused, so settlement never needs presence checks.
package model
