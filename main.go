package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"docqa/config"
	"docqa/controllers"
	dbpkg "docqa/db"
	"docqa/rag"
	"docqa/router"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// =====================
// ENV esperadas
// =====================
//
// - OPENAI_API_KEY      (chave da API OpenAI, obrigatória)
// - JWT_SECRET          (sobrescreve o segredo do config.json)
// - TOKEN_VALID_HOURS   (sobrescreve a validade do token)
// - AUTOMIGRATE         (se "1", roda automigrate no boot)
//
// Todo o resto vem do config.json (porta, banco, qdrant, modelos).
//
// =====================

func main() {
	configPath := flag.String("config", "config.json", "caminho do config.json")
	flag.Parse()

	// .env é opcional; em produção as envs já vêm do ambiente.
	_ = godotenv.Load()

	cfg := config.Get(*configPath)
	controllers.SetConfigurations(cfg)
	dbpkg.SetConfigurations(cfg)

	database, err := dbpkg.Connect()
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}
	openai := rag.NewOpenAIClient(cfg.OpenAI.BaseURL, apiKey, cfg.OpenAI.Model, cfg.OpenAI.EmbeddingModel)

	index, err := rag.DialQdrant(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Qdrant.Collection)
	if err != nil {
		log.Fatal(err)
	}
	defer index.Close()

	// A coleção precisa existir antes do primeiro upload/query.
	if err := index.EnsureCollection(context.Background(), cfg.Qdrant.Dimension); err != nil {
		log.Fatal(err)
	}
	log.Printf("Qdrant collection %q ready (dim=%d, cosine)", cfg.Qdrant.Collection, cfg.Qdrant.Dimension)

	service := rag.NewService(openai, openai, index)

	r := gin.New()
	r.Use(dbpkg.SetDBtoContext(database))
	r.Use(rag.SetServiceToContext(service))
	router.Initialize(r, cfg)

	log.Printf("Docqa listening on :%s", cfg.ApiPort)
	log.Fatal(r.Run(":" + cfg.ApiPort))
}
