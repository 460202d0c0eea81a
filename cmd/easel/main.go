// Package main is the entry point for the easel binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	servecmder "github.com/easelhq/easel/cmd/easel/serve"
)

func main() {
	root := &cobra.Command{
		Use:           "easel",
		Short:         "Chat-driven image generation relay",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(servecmder.NewServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
