package cmd

import (
	"flag"
	"fmt"
	"io"

	"github.com/offlinefirst/inputfixture/pkg/scenario"
)

func newScenariosCommand() command {
	return command{
		name:        "scenarios",
		description: "List the built-in fixture scenarios",
		skipInit:    true,
		run: func(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
			for _, s := range scenario.Builtins() {
				fmt.Fprintf(stdout, "%-12s %4ds  %s\n", s.Name, s.DurationSeconds, s.Description)
			}
			return nil
		},
	}
}
