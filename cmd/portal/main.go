package main

import (
	"context"
	"os"

	"git.sr.ht/~jakintosh/portal/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
