package main

import (
	"fmt"
	"os"

	feedmirror "github.com/goliatone/go-feedmirror"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "feedmirror:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case feedmirror.IsFatal(err):
		return 1
	default:
		return 2
	}
}
