// Package kv implements the byte-oriented key/value store the client keeps
// all of its state in.
//
// Every value lives in a single "metadata" table (key TEXT PRIMARY KEY,
// value BLOB/BYTEA). Higher level repositories (accounts, vault entries,
// sessions) encode their own JSON under well-known keys:
//
//	cyphervault_users        account directory
//	vault_<accountId>        sealed records of one account
//	cyphervault_session      signed session token (ephemeral store)
//	cyphervault_session_key  session signing key (durable store)
//
// Implementations:
//
//   - SQLiteRepository   modernc.org/sqlite, "?" placeholders
//   - PostgresRepository pgx stdlib driver, "$n" placeholders
//   - MemoryRepository   map guarded by a mutex, used in tests
//
// Contract: Get returns (nil, nil) for an absent key. Delete of an absent
// key is not an error. Update runs read-modify-write atomically.
package kv
