package main

import (
	"context"
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newCLI().Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
