package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/pressdesk/models"
)

// pragmas applied to every sqlite connection pool opened by InitGormDB
var sqlitePragmas = []string{
	"PRAGMA foreign_keys=ON;",
	"PRAGMA busy_timeout=5000;",
}

// isMemoryDSN reports whether dsn names an in-memory database rather than a
// file that happens to contain "memory" in its path.
func isMemoryDSN(dsn string) bool {
	name, query, _ := strings.Cut(dsn, "?")
	name = strings.TrimPrefix(name, "file:")
	if name == ":memory:" {
		return true
	}
	for _, param := range strings.Split(query, "&") {
		if param == "mode=memory" {
			return true
		}
	}
	return false
}

// InitGormDB opens the sqlite cache at dataSourceName. Slow queries and
// errors go to the standard logger; record-not-found is not logged since
// the repositories pass it back to callers.
func InitGormDB(dataSourceName string) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.Default(),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", dataSourceName, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	for _, pragma := range sqlitePragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			log.Printf("database: failed to apply %q: %v", pragma, err)
		}
	}

	if isMemoryDSN(dataSourceName) {
		// every connection to an unnamed memory database sees its own schema
		sqlDB.SetMaxOpenConns(1)
	} else {
		if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			log.Printf("database: failed to set WAL mode: %v", err)
		}
		sqlDB.SetMaxIdleConns(4)
		sqlDB.SetMaxOpenConns(16)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Printf("database: opened %s", dataSourceName)
	return db, nil
}

// AutoMigrateModels creates or updates the people cache and reblog tables.
func AutoMigrateModels(db *gorm.DB) error {
	tables := []interface{}{
		&models.Person{},
		&models.Blog{},
		&models.Post{},
		&models.Media{},
	}
	for _, table := range tables {
		if err := db.AutoMigrate(table); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", table, err)
		}
	}
	return nil
}
