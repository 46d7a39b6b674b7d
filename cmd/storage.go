package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"tunesmith/config"
	"tunesmith/storage"

	"github.com/spf13/cobra"
)

var storageKey string

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check the object storage connection",
	Long:  `Connect to MinIO, verify the bucket exists and optionally presign a retrieval URL for a key.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		fmt.Println("MinIO connection OK.")

		if storageKey != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			url, err := storage.PresignedGetURL(ctx, storageKey, 15*time.Minute)
			if err != nil {
				log.Fatalf("Failed to presign %s: %v", storageKey, err)
			}
			fmt.Printf("Presigned URL for %s:\n%s\n", storageKey, url)
		}
	},
}

func init() {
	storageCmd.Flags().StringVar(&storageKey, "key", "", "object key to presign a retrieval URL for")
	rootCmd.AddCommand(storageCmd)
}
