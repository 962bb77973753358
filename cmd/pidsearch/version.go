// Version command for the pidsearch CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is the pidsearch release version.
const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pidsearch version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("pidsearch", version)
	},
}
