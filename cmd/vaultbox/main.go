package main

import (
	"fmt"
	"os"

	"github.com/brown-csci1660/vaultbox/cmd/vaultbox/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
