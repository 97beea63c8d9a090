package config

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

// ProviderCredentials holds the API credentials for one payment
// provider. Missing credentials fail fast before any settlement
// logic can run.
type ProviderCredentials struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

var ErrMissingCredentials = errors.New("provider credentials not configured")

// AsaasCredentials reads the Asaas API configuration from the environment.
func AsaasCredentials() (ProviderCredentials, error) {
	key := GetEnv("ASAAS_API_KEY", "")
	if key == "" {
		return ProviderCredentials{}, ErrMissingCredentials
	}
	return ProviderCredentials{
		APIKey:  key,
		BaseURL: GetEnv("ASAAS_BASE_URL", "https://api.asaas.com/v3"),
	}, nil
}

// EfiBankCredentials reads the EfiBank API configuration from the environment.
func EfiBankCredentials() (ProviderCredentials, error) {
	id := GetEnv("EFI_CLIENT_ID", "")
	secret := GetEnv("EFI_CLIENT_SECRET", "")
	if id == "" || secret == "" {
		return ProviderCredentials{}, ErrMissingCredentials
	}
	return ProviderCredentials{
		APIKey:    id,
		APISecret: secret,
		BaseURL:   GetEnv("EFI_BASE_URL", "https://pix.api.efipay.com.br"),
	}, nil
}
