package db

import (
	"database/sql"
	"fmt"
	"log"

	"tunesmith/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't
// exist. The social tables (likes, favorites, follows, comments) are
// migrated through GORM; see MigrateSocialTables.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createSongsTable(); err != nil {
		return err
	}
	if err := createPlaylistsTable(); err != nil {
		return err
	}
	if err := createPlaylistSongsTable(); err != nil {
		return err
	}
	if err := MigrateSocialTables(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		bio TEXT,
		image VARCHAR(767),
		credits INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT chk_users_credits CHECK (credits >= 0)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Println("Users table initialized successfully (or already exists).")
	return nil
}

func createSongsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS songs (
		id VARCHAR(36) PRIMARY KEY,
		user_id INT NOT NULL,
		title VARCHAR(255) NOT NULL,
		prompt TEXT,
		lyrics TEXT,
		described_lyrics TEXT,
		full_described_song TEXT,
		instrumental BOOLEAN NOT NULL DEFAULT FALSE,
		guidance_scale DOUBLE,
		audio_duration DOUBLE,
		infer_step INT,
		seed BIGINT,
		parent_song_id VARCHAR(36),
		is_remix BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(20) NOT NULL DEFAULT 'queued',
		s3_key VARCHAR(767),
		thumbnail_s3_key VARCHAR(767),
		listen_count BIGINT NOT NULL DEFAULT 0,
		download_count BIGINT NOT NULL DEFAULT 0,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_songs_user (user_id),
		INDEX idx_songs_status (status),
		INDEX idx_songs_parent (parent_song_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	`
	// parent_song_id carries no FK on purpose: a remix never owns its
	// parent and the pointer is allowed to dangle after a parent delete.
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create songs table: %w", err)
	}
	log.Println("Songs table initialized successfully (or already exists).")
	return nil
}

func createPlaylistsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS playlists (
		id VARCHAR(36) PRIMARY KEY,
		user_id INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		is_public BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_playlists_user (user_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create playlists table: %w", err)
	}
	log.Println("Playlists table initialized successfully (or already exists).")
	return nil
}

func createPlaylistSongsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS playlist_songs (
		playlist_id VARCHAR(36) NOT NULL,
		song_id VARCHAR(36) NOT NULL,
		position INT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (playlist_id, song_id),
		FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		FOREIGN KEY (song_id) REFERENCES songs(id) ON DELETE CASCADE
	);
	`
	// Deleting a playlist cascades here and stops: the songs themselves
	// are untouched.
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create playlist_songs table: %w", err)
	}
	log.Println("Playlist songs table initialized successfully (or already exists).")
	return nil
}
