package cmd

import (
	"fmt"
	"log"

	"tunesmith/config"
	"tunesmith/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Initialize or migrate the database schema",
	Long:  `Create the Tunesmith tables if they do not exist and run pending schema migrations.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.DB.Close()

		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database with GORM: %v", err)
		}
		defer db.CloseGormDB()

		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize database schema: %v", err)
		}

		fmt.Println("Database schema is up to date.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
