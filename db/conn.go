// Package db contains things related to the relational store
package db

import (
	"bitwise74/web-starter/internal/model"
	"bitwise74/web-starter/pkg/util"
	"errors"
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table managed by auto migration
var Models = []any{
	model.User{},
	model.Account{},
	model.Session{},
	model.Verification{},
}

// New opens the database selected by driver ("sqlite" or "postgres") and
// migrates the schema
func New(driver, url string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "sqlite":
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() && !inMemory(url) {
			if _, err := os.Stat(url); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", url)
			}
		}

		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}

		dialector = sqlite.Open(url + sep + "_foreign_keys=on")
	case "postgres":
		dialector = postgres.Open(url)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database, %w", driver, err)
	}

	err = db.AutoMigrate(Models...)
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}

func inMemory(url string) bool {
	return url == ":memory:" || strings.Contains(url, "mode=memory")
}
