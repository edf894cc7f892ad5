// Package api defines the core data types for the approval engine
//
// This package contains all the shared types used across the engine,
// including the flow DSL, approval requests, rules, risk results, run
// state, history records, and events
package api
