package db

import (
	"fmt"
	"log"
	"time"

	"tunesmith/config"
	"tunesmith/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB is the GORM database handle. It coexists with DB (*sql.DB): the
// pipeline entities use raw SQL, the social modules use GORM.
var GormDB *gorm.DB

// ConnectGormDB establishes the GORM database connection. Independent of
// ConnectDB so either side can be used on its own.
func ConnectGormDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to the database with GORM.")
	return nil
}

// MigrateSocialTables creates or updates the GORM-managed tables.
func MigrateSocialTables() error {
	if GormDB == nil {
		return fmt.Errorf("GORM database not connected")
	}
	if err := GormDB.AutoMigrate(
		&model.Like{},
		&model.Favorite{},
		&model.Follow{},
		&model.Comment{},
	); err != nil {
		return fmt.Errorf("failed to migrate social tables: %w", err)
	}
	log.Println("Social tables migrated successfully.")
	return nil
}

// CloseGormDB closes the GORM database connection.
func CloseGormDB() error {
	if GormDB == nil {
		return nil
	}
	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
