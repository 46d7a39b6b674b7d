package cmd

import (
	"fmt"
	"log"
	"os"

	"tunesmith/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tunesmith",
	Short: "Tunesmith is a social music-generation service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting Tunesmith server...")
		// server.Start handles its own startup logging and shutdown.
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
