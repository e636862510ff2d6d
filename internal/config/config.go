// Package config loads client configuration from the environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds all environment-driven settings for the client.
type Config struct {
	// APIBaseURL is the origin and base path of the remote REST API.
	APIBaseURL string

	// SocketURL is the websocket endpoint for realtime group events.
	SocketURL string

	// TokenKey is the storage key (and cookie name) for the auth token.
	TokenKey string

	// UserKey is the storage key for the persisted user profile.
	UserKey string

	// DataDir is where the client keeps its state database.
	DataDir string

	// EncryptionKey seeds the credential codec. It ships with the client,
	// so it obfuscates persisted values rather than protecting them.
	EncryptionKey string

	// MetricsAddr is the listen address for the watch-mode metrics endpoint.
	MetricsAddr string

	// UseH2C enables HTTP/2 over cleartext to the API, for backends that
	// serve h2c instead of HTTPS.
	UseH2C bool
}

// Load reads configuration from the environment, after loading a .env file
// if one exists in the working directory.
func Load() *Config {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:5000/api"),
		SocketURL:     getEnv("SOCKET_URL", "ws://localhost:5000/ws"),
		TokenKey:      getEnv("TOKEN_KEY", "expense_app_token"),
		UserKey:       getEnv("USER_KEY", "expense_app_user"),
		DataDir:       getEnv("DATA_DIR", defaultDataDir()),
		EncryptionKey: getEnv("ENCRYPTION_KEY", "splitmate_client_obfuscation_key"),
		MetricsAddr:   getEnv("METRICS_ADDR", "localhost:9464"),
		UseH2C:        getEnv("USE_H2C", "") == "true",
	}
}

// DBPath is the location of the client state database under DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "state.db")
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(dir, "splitmate")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
