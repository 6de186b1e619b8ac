package main

import (
	"fmt"
	"os"

	"mediahub/internal/mediactl"
)

func main() {
	if err := mediactl.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
