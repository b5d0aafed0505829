package config

import (
	"encoding/json"
	"log"
	"os"
)

type Configuration struct {
	ApiPort string `json:"api_port"`
	LogPath string `json:"log_path"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	Security struct {
		JwtSecret      string `json:"jwt_secret"`
		TokenHours     int    `json:"token_valid_hours"`
		PasswordMinLen int    `json:"password_min_len"`
	} `json:"security"`

	Qdrant struct {
		Host       string `json:"host"`
		Port       int    `json:"port"`
		Collection string `json:"collection"`
		Dimension  int    `json:"dimension"`
	} `json:"qdrant"`

	OpenAI struct {
		BaseURL        string `json:"base_url"`
		Model          string `json:"model"`
		EmbeddingModel string `json:"embedding_model"`
	} `json:"openai"`
}

func Get(path string) Configuration {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		log.Fatal(err)
	}
	return ApplyDefaults(c)
}

// ApplyDefaults fills in everything a fresh config.json may omit
// (pra evitar nil/zero chato).
func ApplyDefaults(c Configuration) Configuration {
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}
	if c.Security.TokenHours <= 0 {
		c.Security.TokenHours = 24
	}
	if c.Security.PasswordMinLen <= 0 {
		c.Security.PasswordMinLen = 8
	}
	if c.Qdrant.Host == "" {
		c.Qdrant.Host = "localhost"
	}
	if c.Qdrant.Port <= 0 {
		c.Qdrant.Port = 6334
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "document-index"
	}
	if c.Qdrant.Dimension <= 0 {
		c.Qdrant.Dimension = 1536
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4.1-mini"
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	return c
}
