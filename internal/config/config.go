package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env             string
	HTTPAddr        string
	Storage         string
	DBDriver        string
	DBDSN           string
	ShutdownTimeout time.Duration
	TelegramToken   string
	PollTimeout     time.Duration
	NotifyEnabled   bool
	NotifyCron      string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getdur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getbool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func Load() Config {
	// A missing .env is fine; real deployments use plain env vars.
	_ = godotenv.Load()

	var addr string
	var storage string
	var env string
	flag.StringVar(&addr, "http", getenv("HTTP_ADDR", ":8080"), "addr")
	flag.StringVar(&storage, "storage", getenv("STORAGE", "memory"), "storage")
	flag.StringVar(&env, "env", getenv("APP_ENV", "dev"), "env")
	flag.Parse()
	return Config{
		Env:             env,
		HTTPAddr:        addr,
		Storage:         storage,
		DBDriver:        getenv("DB_DRIVER", "pgx"),
		DBDSN:           getenv("DB_DSN", ""),
		ShutdownTimeout: getdur("SHUTDOWN_TIMEOUT", 5*time.Second),
		TelegramToken:   getenv("TELEGRAM_TOKEN", ""),
		PollTimeout:     getdur("POLL_TIMEOUT", 25*time.Second),
		NotifyEnabled:   getbool("NOTIFY_ENABLED", true),
		NotifyCron:      getenv("NOTIFY_CRON", "0 9 * * *"),
	}
}
