package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MaxQuestionLen caps the question length before embedding; longer input is
// silently truncated, not rejected.
const MaxQuestionLen = 4000

type Validater interface {
	Validate() map[string]string
}

type QueryParams struct {
	Question string `json:"question" validate:"required"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *QueryParams) Validate() map[string]string {
	validate := validator.New()
	if err := validate.Struct(params); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

// SourceRef is one cited snippet in a query response. SnippetIndex is the
// 1-based position matching the [Snippet N] citations in the answer.
type SourceRef struct {
	SnippetIndex int     `json:"snippet_index"`
	Text         string  `json:"text"`
	Source       string  `json:"source"`
	Score        float64 `json:"score"`
}

type QueryResponse struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}
