// Package rate provides the Redis-backed sliding-window rate limit
// primitive behind every engine throttle.
//
// # Window semantics
//
// Each key is a ZSET of hit timestamps (milliseconds as scores). A check
// prunes entries older than the window, rejects when the surviving count
// has reached the budget, and otherwise records the hit, all in one Lua
// script. Rejections report a retry-after derived from the oldest
// surviving hit. Rejected attempts are never recorded, so hammering a
// saturated key does not extend the lockout.
//
// # What this package must NOT do
//
//   - Decide which operations are throttled or with what budgets (the
//     engine config owns policy).
//   - Be imported outside this module.
package rate
