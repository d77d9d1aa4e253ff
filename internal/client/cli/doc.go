// Package cli is the interactive cyphervault terminal client.
//
// NewApp wires configuration, storage, the session manager, the access gate,
// the vault controller, the advisory client and the backup exporters. Run
// fetches the threat briefing in the background and then drives a REPL whose
// command set depends on the gate state:
//
//	LOGIN          login, signup
//	SIGNUP         signup, login
//	MASTER_UNLOCK  unlock, logout
//	VAULT          add, (l)ist [query], show <id>, delete <id>, audit <id>,
//	               report, backup [file|s3|url <url>], lock, logout
//
// help, brief, generate and exit work everywhere. Gate errors are printed as
// their short code and never end the loop.
package cli
