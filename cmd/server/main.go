package main

import (
	"fmt"
	"os"
)

// main is the application composition root.
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
