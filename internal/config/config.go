package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the flat environment configuration of the storefront client.
type Config struct {
	BASE_URL      string
	SRC_URL       string
	NBU_URL       string
	STORE_PATH    string
	DB_HOST       string
	DB_PORT       string
	DB_USER       string
	DB_PASSWORD   string
	DB_NAME       string
	KAFKA_ADDRESS string
	KAFKA_TOPIC   string
	LOG_LEVEL     string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		BASE_URL:      getenv("BASE_URL", "http://localhost:8080"),
		SRC_URL:       getenv("SRC_URL", "https://source.unsplash.com"),
		NBU_URL:       getenv("NBU_URL", "https://bank.gov.ua/NBUStatService/v1/statdirectory/exchange?json"),
		STORE_PATH:    getenv("STORE_PATH", "giftstore.db"),
		DB_HOST:       os.Getenv("DB_HOST"),
		DB_PORT:       os.Getenv("DB_PORT"),
		DB_USER:       os.Getenv("DB_USER"),
		DB_PASSWORD:   os.Getenv("DB_PASSWORD"),
		DB_NAME:       os.Getenv("DB_NAME"),
		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
		KAFKA_TOPIC:   getenv("KAFKA_TOPIC", "storefront_events"),
		LOG_LEVEL:     os.Getenv("LOG_LEVEL"),
	}

	return config, nil
}

// Brokers splits the comma-separated Kafka address list; empty means the
// analytics sink stays off.
func (c *Config) Brokers() []string {
	if c.KAFKA_ADDRESS == "" {
		return nil
	}
	return strings.Split(c.KAFKA_ADDRESS, ",")
}

// UsePostgres reports whether a shared postgres store is configured instead
// of the local sqlite file.
func (c *Config) UsePostgres() bool {
	return c.DB_HOST != "" && c.DB_NAME != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
