// Package session implements AquaMate's backend-resident session store.
//
// A session is an opaque 32-byte token (base64url on the wire) mapping to
// a binary-encoded metadata record in Redis, plus membership in the owning
// user's session set, the reverse index that makes listing and revoke-all
// possible. Record and index are always mutated together: creation is one
// MULTI/EXEC, deletion is one Lua script, so neither can orphan the other.
//
// Expiry is enforced by Redis TTLs. With sliding expiration a successful
// Resolve re-arms the TTL to the configured max age; otherwise the record
// keeps its remaining lifetime. Corrupt records are deleted on sight and
// reported as not found; they are never surfaced as errors.
package session
