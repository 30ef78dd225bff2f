package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

const (
	// EnvHost is the database host variable.
	EnvHost = "DB_HOST"
	// EnvPort is the database port variable.
	EnvPort = "DB_PORT"
	// EnvUser is the database user variable.
	EnvUser = "DB_USER"
	// EnvPassword is the database password variable.
	EnvPassword = "DB_PASSWORD"
	// EnvDatabase is the database/schema name variable.
	EnvDatabase = "DB_NAME"

	DefaultHost = "localhost"
	DefaultPort = 3306
	DefaultUser = "root"
)

// Config holds the database connection settings read from the environment.
// It is built once at startup and read-only for the process lifetime.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// FromEnv builds a Config from the DB_* environment variables, applying the
// documented defaults. The database name may be empty; metadata queries then
// resolve against no schema and return empty results.
func FromEnv() (Config, error) {
	cfg := Config{
		Host:     getenv(EnvHost, DefaultHost),
		Port:     DefaultPort,
		User:     getenv(EnvUser, DefaultUser),
		Password: os.Getenv(EnvPassword),
		Database: os.Getenv(EnvDatabase),
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		cfg.Port = port
	}
	return cfg, nil
}

// DSN renders the go-sql-driver connection string. parseTime is enabled so
// temporal columns scan as time.Time, and the connection charset is utf8mb4.
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = c.Addr()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.DBName = c.Database
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// Addr returns the host:port pair.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// String renders the connection target without the password, safe for logs.
func (c Config) String() string {
	return fmt.Sprintf("%s@%s:%d/%s", c.User, c.Host, c.Port, c.Database)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
