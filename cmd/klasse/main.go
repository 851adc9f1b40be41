// cmd/klasse/main.go
package main

import (
	"os"

	"klasse/cmd/klasse/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
