// Command progression is the operator CLI of the quest and achievement
// progression engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/progression/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// Commands print their own failures; flag and usage errors arrive unprinted
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
