package main

import (
	"log"

	appfx "github.com/amityadav/researchcrew/internal/fx"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	app := fx.New(
		appfx.ConfigModule,    // Provides: config.Config
		appfx.StoreModule,     // Provides: store.Store (Postgres or in-memory)
		appfx.SearchModule,    // Provides: *search.Registry, *scraper.Scraper
		appfx.MailModule,      // Provides: *mail.Sender
		appfx.ModelModule,     // Provides: model.LLM (Gemini with Groq fallback)
		appfx.CrewModule,      // Provides: *core.ResearchCore, *quota.Limiter, *service.ResearchService
		appfx.SchedulerModule, // Provides: *scheduler.Worker (optional), starts it
		appfx.ServerModule,    // Starts the HTTP server

		// Use simple console logger for cleaner output
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ConsoleLogger{W: log.Writer()}
		}),
	)

	// Run blocks until the app receives a shutdown signal
	app.Run()
}
