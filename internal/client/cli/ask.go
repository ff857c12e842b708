package cli

import (
	"context"
	"fmt"
)

// ask sends a free-form question about the loaded dataset to the assistant.
func (a *App) ask(ctx context.Context) error {
	question, err := GetSimpleText(a.reader, "Enter your question", a.out)
	if err != nil {
		return err
	}

	answer, err := a.api.Ask(ctx, question)
	if err != nil {
		fmt.Fprintln(a.out, "Assistant failed:", err)
		return err
	}

	fmt.Fprintln(a.out, answer)
	return nil
}
