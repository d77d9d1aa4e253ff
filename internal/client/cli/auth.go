package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cyphervault/internal/common"
)

// getSimpleText and getPassword point at the interactive helpers and are
// swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login asks for an account id and credential and, on success, moves the
// gate to MASTER_UNLOCK.
func (a *App) Login(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Account ID", a.out)
	if err != nil {
		return err
	}
	credential, err := getPassword(a.out, "Credential")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(credential)

	if err := a.gate.SubmitCredential(ctx, id, credential); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Credential accepted. Type 'unlock' to open the vault.")
	return nil
}

func (a *App) ShowSignup() error {
	return a.gate.SwitchToSignup()
}

func (a *App) ShowLogin() error {
	return a.gate.SwitchToLogin()
}

// Signup collects the new-account form. The credential is entered twice; the
// master key is separate and only ever used to unlock the vault.
func (a *App) Signup(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "New account ID", a.out)
	if err != nil {
		return err
	}

	credential, err := getPassword(a.out, "Credential")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(credential)

	confirm, err := getPassword(a.out, "Confirm credential")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	masterKey, err := getPassword(a.out, "Master key")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(masterKey)

	if err := a.gate.SubmitNewAccount(ctx, id, credential, confirm, masterKey); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Account created. Type 'login' to sign in.")
	return nil
}

func (a *App) Unlock(ctx context.Context) error {
	masterKey, err := getPassword(a.out, "Master key")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(masterKey)

	if err := a.gate.SubmitMasterKey(ctx, masterKey); err != nil {
		return err
	}

	views, err := a.vault.View("")
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Vault unlocked, %d record(s).\n", len(views))
	return nil
}

// Lock drops the vault key but keeps the session, back to MASTER_UNLOCK.
func (a *App) Lock(ctx context.Context) error {
	if err := a.gate.Relock(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Vault locked.")
	return nil
}

// Logout clears the saved session and returns to LOGIN.
func (a *App) Logout(ctx context.Context) error {
	if err := a.gate.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
