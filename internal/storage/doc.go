// Package storage provides the minimal persistence layer used by hotkeyd.
//
// It currently supports:
//   - Named window targets (survive restarts, editable at runtime)
//   - Audit log appends (one row per dispatched action)
package storage
