// Package internal contains helpers that are intentionally private to the
// module, currently secure random token generation.
//
// # Sub-packages
//
//   - rate — Redis-backed sliding-window rate limit primitive
//   - stores — Redis record stores for short-lived credential artifacts
//   - velocity — advisory per-user event velocity tracking
//
// Nothing in here may appear in the public API or be imported from
// outside the module.
package internal
