// cmd/klasse/commands/dump.go
package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"klasse/internal/classfile"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file.class>",
	Short: "Print the structure of a class file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return fail(err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return fail(err)
		}
		class, err := classfile.Parse(f)
		if err != nil {
			return fail(err)
		}
		printClass(class, path, uint64(info.Size()))
		return nil
	},
}

func printClass(class *classfile.Class, path string, size uint64) {
	fmt.Printf("%s %s (%s)\n", heading("class"), class.BinaryName, humanize.Bytes(size))
	fmt.Printf("  version: %s\n", class.Version)
	fmt.Printf("  flags:   %#04x\n", uint16(class.AccessFlags))
	if class.SuperClass != nil {
		fmt.Printf("  super:   %s\n", class.SuperClass.BinaryName)
	}
	for _, iface := range class.Interfaces {
		fmt.Printf("  implements %s\n", iface.BinaryName)
	}
	if class.SourceFile != "" {
		fmt.Printf("  source:  %s\n", class.SourceFile)
	}

	if len(class.Fields) > 0 {
		fmt.Println(heading("fields"))
		for _, field := range class.Fields {
			line := fmt.Sprintf("  %s %s", field.Type, field.Name)
			if field.ConstantValue != nil {
				line += fmt.Sprintf(" = %s", field.ConstantValue)
			}
			fmt.Println(line)
		}
	}

	fmt.Println(heading("methods"))
	for _, method := range class.Methods {
		fmt.Printf("  %s%s\n", method.Name, method.Descriptor.Descriptor())
		if method.Body == nil {
			fmt.Println(dim("    <no code>"))
			continue
		}
		fmt.Printf("    stack=%d locals=%d instructions=%d\n",
			method.Body.MaxStack, method.Body.MaxLocals, method.Body.Instructions.Len())
		for _, pc := range method.Body.Instructions.PCs() {
			insn, _ := method.Body.Instructions.At(pc)
			fmt.Printf("    %5s: %s\n", pc, insn)
		}
		for _, entry := range method.Body.ExceptionTable {
			fmt.Printf("    try %s..%s catch %s at %s\n",
				entry.StartPC, entry.EndPC, entry.CaughtType(), entry.HandlerPC)
		}
	}

	if len(class.FreeAttributes) > 0 {
		fmt.Println(heading("unrecognised attributes"))
		for _, attr := range class.FreeAttributes {
			fmt.Printf("  %s (%s)\n", attr.Name, humanize.Bytes(uint64(len(attr.Payload))))
		}
	}
}
