// Package advisor composes investment answers: retrieve the client's
// report context, format it and ask the language model.
package advisor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domret "github.com/altura-advisory/retrieval/internal/domain/retrieval"
	retrievaluc "github.com/altura-advisory/retrieval/internal/usecase/retrieval"
)

const promptTemplate = `You are an investment advisory assistant. Answer the client's question using only the report excerpts below. If the excerpts do not contain the answer, say so plainly.

Report excerpts:
%s

Question: %s`

// Answer is one advisory response with its supporting retrieval.
type Answer struct {
	Text      string
	Retrieval domret.Result
}

// Service is the advisory answer path.
type Service struct {
	retriever Retriever
	completer Completer
	logger    *zap.Logger
}

// New creates an advisor service.
func New(r Retriever, c Completer, logger *zap.Logger) *Service {
	return &Service{retriever: r, completer: c, logger: logger}
}

// Advise retrieves context for the question and asks the model. The
// retrieval result rides along so callers can expose sources. A failed
// retrieval still produces an answer attempt over the fixed empty
// context; a failed completion is an error.
func (s *Service) Advise(ctx context.Context, tenantID, question string) (Answer, error) {
	result := s.retriever.Retrieve(ctx, tenantID, question)
	if !result.Meta.SearchSuccessful {
		s.logger.Warn("Answering without retrieved context",
			zap.String("tenant_id", tenantID),
			zap.String("error", result.Meta.Error),
		)
	}

	prompt := fmt.Sprintf(promptTemplate, retrievaluc.FormatForConsumption(result), question)

	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return Answer{}, fmt.Errorf("complete answer: %w", err)
	}

	return Answer{Text: text, Retrieval: result}, nil
}
