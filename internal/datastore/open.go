package datastore

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/logger"
)

// Database types accepted by Config.Type.
const (
	TypeSQLite = "sqlite"
	TypeMySQL  = "mysql"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// Config selects and configures the database backend.
type Config struct {
	Type               string
	SQLitePath         string
	MySQL              MySQLConfig
	SlowQueryThreshold time.Duration
}

// MySQLConfig holds MySQL connection settings.
type MySQLConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// Open connects to the configured database, migrates the schema and returns a store.
func Open(cfg Config, log logger.Logger) (*GormStore, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	dbLog := log.Module("datastore")
	gormCfg := &gorm.Config{Logger: logger.NewGormLoggerAdapter(dbLog, cfg.SlowQueryThreshold)}

	var (
		db       *gorm.DB
		err      error
		location string
	)
	switch strings.ToLower(cfg.Type) {
	case "", TypeSQLite:
		var dsn string
		dsn, location, err = sqliteDSN(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dsn), gormCfg)
		if err == nil {
			err = configureSQLitePool(db)
		}
	case TypeMySQL:
		location = net.JoinHostPort(cfg.MySQL.Host, cfg.MySQL.Port) + "/" + cfg.MySQL.Database
		db, err = gorm.Open(gormmysql.Open(mysqlDSN(cfg.MySQL)), gormCfg)
		if err == nil {
			err = configureMySQLPool(db)
		}
	default:
		return nil, errors.Newf("unsupported database type %q", cfg.Type).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "open").
			Context("database_type", cfg.Type).
			Build()
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	dbLog.Info("database ready",
		logger.String("type", strings.ToLower(cfg.Type)),
		logger.String("location", location))
	return NewGormStore(db), nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Software{}, &VersionRecord{}); err != nil {
		return dbError(err, "migrate")
	}
	return nil
}

func sqliteDSN(path string) (dsn, location string, err error) {
	if path == "" || path == MemoryPath {
		return MemoryPath, MemoryPath, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", "", errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("path", dir).
				Build()
		}
	}
	return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", path), path, nil
}

// configureSQLitePool keeps a single connection; an in-memory database exists
// only on the connection that created it.
func configureSQLitePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	return db.Exec("PRAGMA foreign_keys = ON").Error
}

func configureMySQLPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return nil
}

// mysqlDSN builds the DSN with the driver's formatter so credentials are escaped.
func mysqlDSN(cfg MySQLConfig) string {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	port := cfg.Port
	if port == "" {
		port = "3306"
	}
	c := mysql.Config{
		User:                 cfg.Username,
		Passwd:               cfg.Password,
		Net:                  "tcp",
		Addr:                 net.JoinHostPort(cfg.Host, port),
		DBName:               cfg.Database,
		Params:               map[string]string{"charset": "utf8mb4"},
		Loc:                  time.UTC,
		ParseTime:            true,
		Timeout:              timeout,
		ReadTimeout:          timeout,
		WriteTimeout:         timeout,
		AllowNativePasswords: true,
	}
	return c.FormatDSN()
}
