package api

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"kbrag/config"
	"kbrag/logbuf"
	"kbrag/types"
)

type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]types.Snippet, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string, contexts []types.Snippet) (string, error)
}

type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context)
}

// QueryHandler answers questions over the vector index: embed, search,
// generate. All failures past validation bubble to the fiber ErrorHandler
// and surface as a structured 500.
type QueryHandler struct {
	cfg       config.Config
	schema    SchemaEnsurer
	retriever Retriever
	answerer  Answerer
}

func NewQueryHandler(cfg config.Config, schema SchemaEnsurer, retriever Retriever, answerer Answerer) *QueryHandler {
	return &QueryHandler{
		cfg:       cfg,
		schema:    schema,
		retriever: retriever,
		answerer:  answerer,
	}
}

func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	logger, buf := logbuf.New(h.cfg.LogLevel)
	defer buf.Flush()

	ctx := c.Context()

	// idempotent per invocation, not a one-time migration
	h.schema.EnsureSchema(ctx)

	var params types.QueryParams
	if err := c.BodyParser(&params); err != nil {
		logger.Error("query body is not valid JSON", "error", err)
		return ErrQuestionRequired()
	}

	question := strings.TrimSpace(params.Question)
	if len(question) > types.MaxQuestionLen {
		question = question[:types.MaxQuestionLen]
	}
	params.Question = question
	if errs := types.Validate(&params); len(errs) > 0 || question == "" {
		logger.Error("validation failed: question is required but was empty or missing")
		return ErrQuestionRequired()
	}

	logger.Info("query received", "question_length", len(question))

	contexts, err := h.retriever.Retrieve(ctx, question, h.cfg.RetrieveK)
	if err != nil {
		logger.Error("retrieval failed", "error", err)
		return err
	}
	logger.Info("search completed", "context_count", len(contexts))

	answer, err := h.answerer.Answer(ctx, question, contexts)
	if err != nil {
		logger.Error("answer generation failed", "error", err)
		return err
	}
	logger.Info("answer generated", "answer_length", len(answer))

	sources := make([]types.SourceRef, len(contexts))
	for i, s := range contexts {
		sources[i] = types.SourceRef{
			SnippetIndex: i + 1,
			Text:         s.Text,
			Source:       s.Source,
			Score:        s.Score,
		}
	}

	return c.JSON(types.QueryResponse{
		Answer:  answer,
		Sources: sources,
	})
}
