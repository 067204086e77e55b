package config

import (
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port           string
	DBPath         string
	JWTSecret      string
	AuthAccessKey  string
	TowerAPIURL    string
	TowerAPIKey    string
	MaxUploadBytes int64
}

// Load reads configuration from environment variables
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/celltrack.db"
	}

	towerAPIURL := os.Getenv("CELL_TOWER_API_URL")
	if towerAPIURL == "" {
		towerAPIURL = "https://opencellid.org/cell/getInArea"
	}

	maxUpload := int64(16 * 1024 * 1024)
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxUpload = n
		}
	}

	return &Config{
		Port:           port,
		DBPath:         dbPath,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AuthAccessKey:  os.Getenv("AUTH_ACCESS_KEY"),
		TowerAPIURL:    towerAPIURL,
		TowerAPIKey:    os.Getenv("CELL_TOWER_API_KEY"),
		MaxUploadBytes: maxUpload,
	}
}

// AuthEnabled reports whether bearer-token auth should be enforced.
// Both the signing secret and the access key must be configured.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" && c.AuthAccessKey != ""
}
