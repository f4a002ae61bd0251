package config

import (
	"encoding/json"
	"log"
	"os"
	"strings"
)

type Configuration struct {
	ApiPort string `json:"api_port"`
	BaseURL string `json:"base_url"` // URL pública usada nos webhooks (ex: https://api.conecta.com)

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	Security struct {
		JwtSecret          string `json:"jwt_secret"`
		EncryptionSecret   string `json:"encryption_secret"`
		EncryptionKDF      string `json:"encryption_kdf"` // "legacy" ou "hkdf"
		WebhookVerifyToken string `json:"webhook_verify_token"`
	} `json:"security"`

	StatusPollSeconds int `json:"status_poll_seconds"`
}

func Get(path string) Configuration {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		log.Fatal(err)
	}

	// defaults (pra evitar nil/zero chato)
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.BaseURL == "" {
		c.BaseURL = getenv("CONECTA_BASE_URL", "http://localhost:"+c.ApiPort)
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = getenv("JWT_SECRET", "CHANGE_ME")
	}
	if c.Security.EncryptionSecret == "" {
		c.Security.EncryptionSecret = getenv("CREDENTIALS_ENCRYPTION_SECRET", "")
	}
	if c.Security.EncryptionKDF == "" {
		c.Security.EncryptionKDF = "legacy"
	}
	if c.Security.WebhookVerifyToken == "" {
		c.Security.WebhookVerifyToken = getenv("WEBHOOK_VERIFY_TOKEN", "")
	}
	if c.StatusPollSeconds <= 0 {
		c.StatusPollSeconds = 30
	}

	return c
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
