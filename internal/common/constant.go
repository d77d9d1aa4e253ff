// Package common contains shared constants, sentinel errors and small
// helpers used across CypherVault components.
package common

// AppName names the on-disk directories and log attributes of the client.
const AppName = "cyphervault"
