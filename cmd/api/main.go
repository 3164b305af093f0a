package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/config"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/db"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/handlers"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/marketplace"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis is not reachable: ", err)
	}
	log.Println("Redis connected")

	hub := realtime.NewHub()
	go hub.Run()

	services := marketplace.NewServices(gdb, realtime.NewNotifier(hub, rdb))

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true, // refresh cookie
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	authH := &handlers.AuthHandler{
		Users:          services.Users,
		Sessions:       session.NewRedisStore(rdb),
		AccessSecret:   cfg.AccessSecret,
		RefreshSecret:  cfg.RefreshSecret,
		AccessExpires:  cfg.AccessExpiresMin,
		RefreshExpires: cfg.RefreshExpiresMin,
		CookieSecure:   cfg.CookieSecure,
	}

	var googleH *handlers.GoogleOAuthHandler
	if cfg.GoogleClientID != "" {
		googleH = &handlers.GoogleOAuthHandler{
			Auth:            authH,
			GoogleClientID:  cfg.GoogleClientID,
			GoogleSecret:    cfg.GoogleSecret,
			GoogleRedirect:  cfg.GoogleRedirect,
			FrontendBaseURL: cfg.FrontendBaseURL,
		}
	}

	handlers.Register(app.Group("/api"), handlers.RouterConfig{
		Services:     services,
		Auth:         authH,
		Google:       googleH,
		Hub:          hub,
		AccessSecret: cfg.AccessSecret,
	})

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
