package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"

	"docmerge/adapters/docx"
	"docmerge/adapters/spreadsheet"
	"docmerge/app"
	"docmerge/internal/config"
	"docmerge/ui"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	codec := docx.NewCodec()
	reader := spreadsheet.NewReader()
	generator := app.NewGenerationService(nil)

	webApp, err := ui.NewApp(cfg, codec, reader, generator)
	if err != nil {
		log.Fatalf("Failed to create UI app: %v", err)
	}

	// Start pprof server for performance profiling
	if cfg.Profiling.Enabled {
		go func() {
			log.Printf("🚀 Performance profiling server starting on :%s", cfg.Profiling.Port)
			log.Printf("💡 View profiles: go tool pprof -http=:8081 http://localhost:%s/debug/pprof/profile?seconds=30", cfg.Profiling.Port)
			if err := http.ListenAndServe(":"+cfg.Profiling.Port, nil); err != nil {
				log.Printf("❌ pprof server failed: %v", err)
			}
		}()
	}

	log.Printf("🚀 Starting docmerge on port %s", cfg.Server.Port)
	log.Fatal(webApp.Start())
}
