package config

import (
	"os"
	"strconv"
)

type Config struct {
	AppPort           string
	DBDriver          string
	DBDSN             string
	AccessSecret      string
	RefreshSecret     string
	AccessExpiresMin  int
	RefreshExpiresMin int
	RedisAddr         string
	RedisPassword     string
	CORSOrigins       string
	CookieSecure      bool
	GoogleClientID    string
	GoogleSecret      string
	GoogleRedirect    string
	FrontendBaseURL   string
}

func Load() Config {
	accessExp, _ := strconv.Atoi(get("ACCESS_TOKEN_EXPIRES_MIN", "10"))
	refreshExp, _ := strconv.Atoi(get("REFRESH_TOKEN_EXPIRES_MIN", "1440"))
	secure, _ := strconv.ParseBool(get("COOKIE_SECURE", "false"))
	return Config{
		AppPort:           get("APP_PORT", "3500"),
		DBDriver:          get("DB_DRIVER", "postgres"),
		DBDSN:             must("DB_DSN"),
		AccessSecret:      must("ACCESS_TOKEN_SECRET"),
		RefreshSecret:     must("REFRESH_TOKEN_SECRET"),
		AccessExpiresMin:  accessExp,
		RefreshExpiresMin: refreshExp,
		RedisAddr:         get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     get("REDIS_PASSWORD", ""),
		CORSOrigins:       get("CORS_ORIGINS", "http://127.0.0.1:5173, http://localhost:5173"),
		CookieSecure:      secure,
		GoogleClientID:    get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:      get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect:    get("GOOGLE_REDIRECT_URL", ""),
		FrontendBaseURL:   get("FRONTEND_BASE_URL", "http://localhost:5173"),
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
