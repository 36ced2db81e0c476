package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "wayfarer",
		Short:   "Wayfarer: travel guide generation from live content, weather, and places providers",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newGenerateCmd(),
		newMCPCmd(),
		newCacheCmd(),
		newAuditCmd(),
		newTripsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
