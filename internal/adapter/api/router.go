package api

import (
	"cultura-chat/internal/logging"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const requestIDKey = "requestid"

func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      serviceName,
		ErrorHandler: ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
}

func SetupRouter(app *fiber.App, handler *ChatHandler) {
	// Middleware
	app.Use(requestid.New(requestid.Config{
		Generator:  logging.GenerateRequestID,
		ContextKey: requestIDKey,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${locals:requestid} | ${status} | ${latency} | ${method} ${path}\n",
		Output: logging.Writer(),
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	// The web client calls through an /api prefix
	for _, r := range []fiber.Router{app, app.Group("/api")} {
		r.Get("/health", HandleHealth)
		r.Post("/chat", handler.HandleChat)
	}
}
