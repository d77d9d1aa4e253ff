// Package models defines the client-side data model of CypherVault:
// accounts, sessions, credential records in their plain and sealed forms,
// and advisory results attached to records.
package models
