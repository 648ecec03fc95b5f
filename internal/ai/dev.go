package ai

import "context"

// DevProvider echoes input back. Used when no API key is configured so the
// guest portal stays testable locally.
type DevProvider struct{}

func NewDevProvider() *DevProvider { return &DevProvider{} }

func (p *DevProvider) Chat(_ context.Context, req ChatRequest) (string, error) {
	return "dev answer: " + req.Message, nil
}

func (p *DevProvider) Translate(_ context.Context, req TranslateRequest) (string, error) {
	return "[" + req.TargetLang + "] " + req.Text, nil
}
