// Package password implements Argon2id password hashing and the AquaMate
// password strength policy.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Hashes self-describe their parameters, so verification works across
// configuration changes without migration.
//
// # Architecture boundaries
//
// This package owns hashing, verification, and strength checking only.
// Reuse rejection and breach lookups are enforced by the Engine, which also
// maps policy errors onto its public taxonomy.
//
// Verification never fails with an error: a malformed stored hash verifies
// as false, keeping corruption out of login control flow.
package password
