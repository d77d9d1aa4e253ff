package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cyphervault/internal/client/services"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. *App implements it.
type execIface interface {
	state() services.State
	prompt() string
	logFailure(ctx context.Context, cmd string, err error)

	Login(ctx context.Context) error
	ShowSignup() error
	Signup(ctx context.Context) error
	ShowLogin() error
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	Logout(ctx context.Context) error

	Add(ctx context.Context) error
	List(query string) error
	Show(id string) error
	Delete(ctx context.Context, id string) error
	Audit(ctx context.Context, id string) error
	Report() error
	Backup(ctx context.Context, args []string) error

	Brief() error
	Generate(args []string) error
}

var helpByState = map[services.State]string{
	services.StateLogin:        "Available commands: login, signup, brief, generate, exit",
	services.StateSignup:       "Available commands: signup, login, brief, generate, exit",
	services.StateMasterUnlock: "Available commands: unlock, logout, brief, generate, exit",
	services.StateVault: "Available commands: add, (l)ist [query], show <id>, delete <id>, audit <id>, " +
		"report, backup [file|s3|url <url>], lock, logout, brief, generate, exit",
}

// runREPL reads commands from in until EOF, exit or quit. Errors returned by
// handlers are printed as their short code; internal ones are logged in full.
func runREPL(ctx context.Context, a execIface, in *bufio.Reader) {
	for {
		printlnFn(a.prompt())

		line, readErr := in.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if readErr != nil {
				return
			}
			continue
		}

		cmd, args := parts[0], parts[1:]
		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			if services.ErrorCode(err) == services.CodeInternal {
				a.logFailure(ctx, cmd, err)
			}
			printlnFn(errorMessage(err))
		}

		if readErr != nil {
			return
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		printlnFn(helpByState[a.state()])
		return nil
	case "brief":
		return a.Brief()
	case "generate":
		return a.Generate(args)
	}

	switch a.state() {
	case services.StateLogin:
		switch cmd {
		case "login":
			return a.Login(ctx)
		case "signup":
			return a.ShowSignup()
		}

	case services.StateSignup:
		switch cmd {
		case "signup":
			return a.Signup(ctx)
		case "login":
			return a.ShowLogin()
		}

	case services.StateMasterUnlock:
		switch cmd {
		case "unlock":
			return a.Unlock(ctx)
		case "logout":
			return a.Logout(ctx)
		}

	case services.StateVault:
		switch cmd {
		case "add":
			return a.Add(ctx)
		case "l", "list", "search":
			return a.List(strings.Join(args, " "))
		case "show":
			return withID(cmd, args, a.Show)
		case "delete":
			return withID(cmd, args, func(id string) error { return a.Delete(ctx, id) })
		case "audit":
			return withID(cmd, args, func(id string) error { return a.Audit(ctx, id) })
		case "report":
			return a.Report()
		case "backup":
			return a.Backup(ctx, args)
		case "lock":
			return a.Lock(ctx)
		case "logout":
			return a.Logout(ctx)
		}
	}

	printlnFn("Unknown command:", cmd)
	return nil
}

func withID(cmd string, args []string, fn func(id string) error) error {
	if len(args) == 0 {
		printlnFn("Usage: " + cmd + " <id>")
		return nil
	}
	return fn(args[0])
}

// errorMessage renders err the way the user sees it, e.g. "INVALID CREDENTIALS".
func errorMessage(err error) string {
	return strings.ReplaceAll(services.ErrorCode(err), "_", " ")
}
