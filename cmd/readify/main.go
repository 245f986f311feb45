package main

import (
	"fmt"
	"os"

	"readify/cmd/readify/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
