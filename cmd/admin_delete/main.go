package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := root()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "[ERROR]", err)
		os.Exit(1)
	}
}
