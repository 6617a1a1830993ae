package config

import (
	"fmt"
	"os"
)

// DatabaseConfig returns host, port, user, password, database name
func DatabaseConfig() (string, string, string, string, string) {
	host := GetEnv("DB_HOST", "localhost")
	port := GetEnv("DB_PORT", "5432")
	user := GetEnv("DB_USER", "kata")
	password := GetEnv("DB_PASS", "")
	name := GetEnv("DB_NAME", "kata")
	return host, port, user, password, name
}

// RedisConfig returns host, port, password
func RedisConfig() (string, string, string) {
	host := GetEnv("R_HOST", "localhost")
	port := GetEnv("R_PORT", "6379")
	password := GetEnv("R_PASS", "")
	return host, port, password
}

// AuthConfig holds the hosted auth provider endpoint and its anon key,
// plus the site base URL used when building redirect targets.
type AuthConfig struct {
	URL string
	Key string
}

// AuthProviderConfig reads the auth provider settings. In production the
// URL and key are mandatory; in development missing values are tolerated
// so the rest of the app can run against the content APIs alone.
func AuthProviderConfig() (AuthConfig, error) {
	cfg := AuthConfig{
		URL: os.Getenv("AUTH_URL"),
		Key: os.Getenv("AUTH_KEY"),
	}
	if IsProduction() && (cfg.URL == "" || cfg.Key == "") {
		return cfg, fmt.Errorf("AUTH_URL and AUTH_KEY are required in production")
	}
	return cfg, nil
}

// ProviderKeys holds credentials for the external content catalogs.
// Any of these may be empty; the corresponding proxy routes then answer
// with an error instead of the whole process refusing to start.
type ProviderKeys struct {
	TMDBAPIKey       string
	GoogleBooksKey   string
	IGDBClientID     string
	IGDBClientSecret string
}

func ContentProviderKeys() ProviderKeys {
	return ProviderKeys{
		TMDBAPIKey:       os.Getenv("TMDB_API_KEY"),
		GoogleBooksKey:   os.Getenv("GOOGLE_BOOKS_API_KEY"),
		IGDBClientID:     os.Getenv("IGDB_CLIENT_ID"),
		IGDBClientSecret: os.Getenv("IGDB_CLIENT_SECRET"),
	}
}

func IsProduction() bool {
	return GetEnv("APP_ENV", "development") == "production"
}

// GetEnv retrieves values from environment files based on the key it matches,
// returns a string (value) if not empty
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
