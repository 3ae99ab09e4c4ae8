package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/martianoff/exprdual/internal/duality/fixtures"
)

var printTestCmd = &cobra.Command{
	Use:   "print-test [name]",
	Short: "Print a canonical example source, or list the available names",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPrintTest,
}

func runPrintTest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		names := append([]string{}, fixtures.Names()...)
		sort.Strings(names)
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}
	src, ok := fixtures.All[args[0]]
	if !ok {
		return fmt.Errorf("unknown example %q (run print-test with no arguments to list names)", args[0])
	}
	_, err := fmt.Fprint(os.Stdout, src)
	return err
}
