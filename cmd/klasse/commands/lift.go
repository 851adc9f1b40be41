// cmd/klasse/commands/lift.go
package commands

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"klasse/internal/classfile"
	"klasse/internal/lifter"
)

var liftCmd = &cobra.Command{
	Use:   "lift <file.class> [method]",
	Short: "Lift method bytecode to SSA IR",
	Long: "Lift lifts each method of the class (or a single named method) " +
		"into register-based SSA IR and prints the listing with its " +
		"control-flow edges.",
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fail(err)
		}
		defer f.Close()
		class, err := classfile.Parse(f)
		if err != nil {
			return fail(err)
		}
		var only string
		if len(args) == 2 {
			only = args[1]
		}
		fmt.Printf("%s %s\n", dim("run"), uuid.NewString())
		failures := 0
		for i := range class.Methods {
			method := &class.Methods[i]
			if only != "" && method.Name != only {
				continue
			}
			if method.Body == nil {
				continue
			}
			// A failed method does not abort its siblings.
			if err := printLifted(method); err != nil {
				failures++
				fmt.Fprintf(os.Stderr, "klasse: %s: %v\n", method, err)
			}
		}
		if failures > 0 {
			return fmt.Errorf("%d method(s) failed to lift", failures)
		}
		return nil
	},
}

func printLifted(method *classfile.Method) error {
	lifted, err := lifter.Lift(method)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s%s\n", heading("method"), lifted.Name, lifted.Descriptor.Descriptor())
	for _, pc := range lifted.Instructions.PCs() {
		insn, _ := lifted.Instructions.At(pc)
		fmt.Printf("  %5s: %s\n", pc, insn)
	}
	for _, edge := range lifted.CFG.Edges() {
		fmt.Printf("  %s -> %s  [%s]\n", edge.Source, edge.Target, edge.Transfer)
	}
	return nil
}
