package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := ""
	if cur, ok := a.holder.Current(); ok {
		s = fmt.Sprintf("%s %s ", cur.Identity.Email, cur.Identity.Role)
	}
	s = s + string(a.Screen().Destination)
	return fmt.Sprintf("(%s)", s)
}

// Root prints the greeting and runs the REPL on the app's input.
func (a *App) Root(ctx context.Context) {
	a.println("Welcome to hireloop (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}
