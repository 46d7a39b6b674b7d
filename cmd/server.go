package cmd

import (
	"tunesmith/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Tunesmith HTTP server",
	Long:  `Start the HTTP server that serves the generation pipeline and the social API.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
