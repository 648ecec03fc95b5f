// Package ai holds the downstream AI collaborator behind the rate-limited
// guest endpoints. The RAG pipeline, embeddings and prompt assembly live
// outside this service; only the call boundary is modeled here.
package ai

import "context"

type ChatRequest struct {
	PropertyName string
	GuideContext string
	Message      string
}

type TranslateRequest struct {
	Text       string
	TargetLang string
}

type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	Translate(ctx context.Context, req TranslateRequest) (string, error)
}
