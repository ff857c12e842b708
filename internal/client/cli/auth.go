package cli

import (
	"context"
	"fmt"
)

// Login prompts for a username and password and authenticates against the
// server. On success the session identity is shown in the REPL prompt.
func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	result, err := a.api.Login(ctx, username, string(password))
	for i := range password {
		password[i] = 0
	}
	if err != nil {
		fmt.Fprintln(a.out, "Login failed:", err)
		return err
	}

	a.userName = username
	a.role = result.Role
	if result.FullName != "" {
		fmt.Fprintf(a.out, "Welcome, %s (%s)\n", result.FullName, result.Role)
	} else {
		fmt.Fprintf(a.out, "Welcome, %s (%s)\n", username, result.Role)
	}
	return nil
}

// Logout ends the current session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		fmt.Fprintln(a.out, "Logout failed:", err)
		return err
	}
	a.userName = ""
	a.role = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
