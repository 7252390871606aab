// Package aquamate implements the AquaMate credential and session core:
// login/registration session issuance, multi-session tracking with
// revocation, and the forgot/reset-password state machine.
//
// Sessions and reset tokens are opaque, unguessable identifiers resolved
// against Redis; nothing security-relevant is stored client-side. The
// package is built to be embedded by a transport layer: all operations
// hang off [Engine], constructed once through [Builder.Build], and are safe
// for concurrent use after construction.
//
// External collaborators are injected as interfaces: [UserProvider] owns
// the user records (the engine only reads id/status/hash and writes a new
// hash), [Sender] delivers reset tokens out of band, and [AuditSink]
// receives security events asynchronously.
//
// Anti-enumeration is a hard contract: RequestPasswordReset behaves
// identically whether or not the identifier maps to an account, and
// expired, revoked, and never-issued tokens are indistinguishable to
// callers.
package aquamate
