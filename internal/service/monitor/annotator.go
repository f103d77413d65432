package monitor

import (
	"context"
	"fmt"
	"strings"

	"github.com/KNICEX/market-sentinel/internal/service/llm"
)

const annotatePrompt = `You are a crypto market assistant. In one short sentence (max 25 words),
give a neutral observation about this alert. No advice, no emojis.

%s`

// LLMAnnotator asks an llm.Service for a one-line note on the alert.
type LLMAnnotator struct {
	svc llm.Service
}

func NewLLMAnnotator(svc llm.Service) *LLMAnnotator {
	return &LLMAnnotator{svc: svc}
}

func (a *LLMAnnotator) Annotate(ctx context.Context, event AlertEvent) (string, error) {
	answer, err := a.svc.AskOnce(ctx, llm.Question{Content: fmt.Sprintf(annotatePrompt, Render(event))})
	if err != nil {
		return "", err
	}
	note := strings.TrimSpace(answer.Content)
	// 只保留第一行
	if i := strings.IndexByte(note, '\n'); i >= 0 {
		note = strings.TrimSpace(note[:i])
	}
	return note, nil
}
