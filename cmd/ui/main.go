package main

import (
	"log"

	"docmerge/adapters/docx"
	"docmerge/adapters/spreadsheet"
	appsvc "docmerge/app"
	"docmerge/internal/config"
	"docmerge/ui"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := ui.NewApp(cfg, docx.NewCodec(), spreadsheet.NewReader(), appsvc.NewGenerationService(nil))
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	log.Fatal(app.Start())
}
