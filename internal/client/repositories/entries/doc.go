// Package entries is the Vault Store: it persists the ordered sequence of
// sealed credential records belonging to one account.
//
// # Layout
//
// Each account's records live under the key "vault_<accountId>" of a
// kv.Repository as a JSON array. Array order is insertion order, which is
// also display order. Secrets inside the array are AES-GCM sealed (see
// models.StoredRecord); site, login name, category and timestamps are not.
//
// # Writes
//
// Save replaces the whole sequence. There is no merging: the last writer
// wins, which is enough for a single interactive process.
//
// Typical usage
//
//	repo := entries.NewKVRepository(store)
//	records, _ := repo.Load(ctx, "neo")
//	records = append(records, sealed)
//	_ = repo.Save(ctx, "neo", records)
package entries
