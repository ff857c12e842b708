package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s %s)", a.userName, a.role)
}

// Root runs the read-eval-print loop. It reads a line, parses the first
// token as the command, and dispatches to methods on a. The loop exits on
// EOF or when the user types "exit" or "quit". Errors returned by command
// handlers are ignored here; handlers print their own errors.
func (a *App) Root(ctx context.Context) error {

	fmt.Fprintln(a.out, "Welcome to the production report CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	_ = a.Login(ctx)

	for {
		fmt.Fprintf(a.out, "prodreport %s> ", a.getStatus())
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(a.out, "Available commands: load, rows, kpi, edit, audit, ask, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "load":
			_ = a.load(ctx)
		case "rows":
			_ = a.rows(ctx)
		case "kpi":
			_ = a.kpi(ctx)
		case "edit":
			_ = a.edit(ctx)
		case "audit":
			_ = a.auditLog(ctx)
		case "ask":
			_ = a.ask(ctx)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return nil
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}
