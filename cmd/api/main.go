package main

import (
	"log"

	"docmerge/adapters/docx"
	"docmerge/adapters/spreadsheet"
	"docmerge/api"
	appsvc "docmerge/app"
	"docmerge/internal/config"

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

	server := api.NewServer(cfg, docx.NewCodec(), spreadsheet.NewReader(), appsvc.NewGenerationService(nil))
	log.Fatal(server.Start(cfg.Server.Host + ":" + cfg.Server.Port))
}
