// Package main is the ddosprep command.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
