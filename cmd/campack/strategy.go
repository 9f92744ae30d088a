package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"campack/internal/assemble"
	"campack/internal/card"
)

// interactiveStrategy returns the three-way packaging choice for
// unrecognized card layouts. Off a terminal it silently picks the
// structured package.
func interactiveStrategy(cmd *cobra.Command) func(card.Type) assemble.Strategy {
	return func(cardType card.Type) assemble.Strategy {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return assemble.StrategyAIP
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Card layout is %s (unrecognized). How should it be packaged?\n", cardType)
		fmt.Fprintln(out, "  1) structured archival package")
		fmt.Fprintln(out, "  2) original-as-is tarball")
		fmt.Fprintln(out, "  3) both")
		fmt.Fprint(out, "Choice [1]: ")

		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		switch strings.TrimSpace(line) {
		case "2":
			return assemble.StrategyTar
		case "3":
			return assemble.StrategyBoth
		default:
			return assemble.StrategyAIP
		}
	}
}
