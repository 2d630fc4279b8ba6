package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"kbrag/config"
	"kbrag/index"
	"kbrag/loader/internal"
	"kbrag/loader/service"
	"kbrag/model"
)

func init() {
	loadEnvVariables()
}

func main() {
	cfg := config.Load()

	ctx := context.Background()
	idx, err := index.NewPostgresIndex(ctx, cfg.PostgresDSN(), cfg.IndexTable, cfg.EmbedDimensions, nil)
	if err != nil {
		log.Fatal("error to connect to Postgres database: ", err)
	}
	defer idx.Close()

	rt := model.NewRuntime(cfg.ModelRuntimeURL)
	embedder := model.NewModelEmbedder(rt, cfg.EmbedModelID, cfg.EmbedDimensions, cfg.EmbedNormalize)
	store := internal.NewFSStore(cfg.SourceDir)

	service.New(cfg, store, embedder, idx).Run()
}

func loadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
}
