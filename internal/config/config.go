package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DBDSN          string
	LogFile        string
	AccessPassword string
}

func Load() Config {
	// Optional .env in the working directory; real env wins.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "tallybot.db" // sqlite file in project root
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./tallybot.log"
	}
	password := os.Getenv("ACCESS_PASSWORD")
	if password == "" {
		password = "change-me"
		log.Println("[config] ACCESS_PASSWORD not set, using default; change it")
	}

	cfg := Config{Port: port, DBDSN: dsn, LogFile: logFile, AccessPassword: password}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s", cfg.Port, cfg.DBDSN, cfg.LogFile)
	return cfg
}
