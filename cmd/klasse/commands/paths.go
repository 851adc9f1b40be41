// cmd/klasse/commands/paths.go
package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"klasse/internal/classfile"
	"klasse/internal/ir"
	"klasse/internal/jvm"
	"klasse/internal/lifter"
)

var pathsCmd = &cobra.Command{
	Use:   "paths <file.class> <method>",
	Short: "Print per-instruction path conditions of a method",
	Args:  cobra.ExactArgs(2),
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
		for i := range class.Methods {
			method := &class.Methods[i]
			if method.Name != args[1] || method.Body == nil {
				continue
			}
			lifted, err := lifter.Lift(method)
			if err != nil {
				return fail(err)
			}
			conditions, err := ir.AnalysePathConditions(lifted.CFG)
			if err != nil {
				return fail(fmt.Errorf("path condition analysis failed"))
			}
			printConditions(lifted, conditions)
			return nil
		}
		return fail(fmt.Errorf("no method %q with code in %s", args[1], args[0]))
	},
}

func printConditions(lifted *lifter.MethodIR, conditions map[jvm.ProgramCounter]ir.PathCondition) {
	fmt.Printf("%s %s%s\n", heading("method"), lifted.Name, lifted.Descriptor.Descriptor())
	pcs := make([]jvm.ProgramCounter, 0, len(conditions))
	for pc := range conditions {
		pcs = append(pcs, pc)
	}
	sort.Slice(pcs, func(i, j int) bool { return pcs[i] < pcs[j] })
	for _, pc := range pcs {
		insn, ok := lifted.Instructions.At(pc)
		if !ok {
			continue
		}
		fmt.Printf("  %5s: %-40s %s\n", pc, insn, dim(conditions[pc].String()))
	}
}
