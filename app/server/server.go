package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"kbrag/app/agent"
	"kbrag/app/api"
	"kbrag/config"
	"kbrag/index"
	"kbrag/model"
	"kbrag/search"
)

// Server hosts the query path. Clients (index pool, model runtime) are
// constructed once here and reused across invocations.
type Server struct {
	cfg    config.Config
	logger *slog.Logger
	app    *fiber.App
	idx    *index.PostgresIndex
}

func New(cfg config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Run() error {
	ctx := context.Background()

	idx, err := index.NewPostgresIndex(ctx, s.cfg.PostgresDSN(), s.cfg.IndexTable, s.cfg.EmbedDimensions, s.logger)
	if err != nil {
		return err
	}
	s.idx = idx

	rt := model.NewRuntime(s.cfg.ModelRuntimeURL)
	embedder := model.NewModelEmbedder(rt, s.cfg.EmbedModelID, s.cfg.EmbedDimensions, s.cfg.EmbedNormalize)
	generator := model.NewGenerator(rt, s.cfg.GenModelID, s.cfg.GenInferenceProfileID, s.cfg.GenMaxTokens)

	queryHandler := api.NewQueryHandler(
		s.cfg,
		idx,
		search.NewRetriever(embedder, idx),
		agent.NewAnswerer(generator),
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: api.NewErrorHandler(s.cfg.DebugPublicErrors),
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORSAllowOrigin,
		AllowHeaders: "Content-Type, Authorization",
		AllowMethods: "POST, OPTIONS",
	}))

	check := app.Group("/check")
	apiv1 := app.Group("/api/v1")

	check.Get("/healthy", api.NewCheckHandler().HandleHealthy)
	apiv1.Post("/query", queryHandler.HandleQuery)

	s.app = app
	s.logger.Info("query server listening", "addr", s.cfg.ServerAddr)
	return app.Listen(s.cfg.ServerAddr)
}

func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("server shutdown", "error", err)
		}
	}
	if s.idx != nil {
		s.idx.Close()
	}
	s.logger.Info("server stopped")
}
