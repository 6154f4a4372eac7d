package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	AllowedOrigins []string
	ReconnectGrace time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRooms       int
}

// InitConfig loads a .env file into the environment. A missing file is
// fine, the process environment is used as is.
func InitConfig(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Println("no .env file, using process environment")
			return
		}
		log.Printf("Error loading environment variables: %v", err)
		return
	}

	log.Println("Successfully loaded environment variables")
}

// Load reads the server configuration from the environment, falling back to
// defaults for anything unset or unparsable.
func Load() Config {
	cfg := Config{
		Addr:           getEnv("ARENA_ADDR", ":8080"),
		AllowedOrigins: splitList(getEnv("ARENA_ALLOWED_ORIGINS", "*")),
		ReconnectGrace: parseDuration(getEnv("ARENA_RECONNECT_GRACE", "10s"), 10*time.Second),
		ReadTimeout:    parseDuration(getEnv("ARENA_READ_TIMEOUT", "15s"), 15*time.Second),
		WriteTimeout:   parseDuration(getEnv("ARENA_WRITE_TIMEOUT", "15s"), 15*time.Second),
		MaxRooms:       parseInt(getEnv("ARENA_MAX_ROOMS", "64"), 64),
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		log.Println("[WARN] accepting websocket and API requests from any origin; set ARENA_ALLOWED_ORIGINS in production")
	}
	return cfg
}

func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}

	return b, nil

}

func getEnv(key, def string) string {
	if v, err := GetEnvVariable(key); err == nil {
		return v
	}
	return def
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("config: bad duration %q, using %s", s, def)
		return def
	}
	return d
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		log.Printf("config: bad number %q, using %d", s, def)
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
