package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/KNICEX/market-sentinel/internal/service/llm"
	"github.com/google/generative-ai-go/genai"
)

const DefaultModel = "gemini-2.0-flash"

var ErrEmptyAnswer = errors.New("gemini returned no text")

type Service struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewService(client *genai.Client, opts ...Option) llm.Service {
	svc := &Service{
		client: client,
		model:  client.GenerativeModel(DefaultModel),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type Option func(service *Service)

// WithModel must come before the other options, it replaces the model.
func WithModel(name string) Option {
	return func(service *Service) {
		if name != "" {
			service.model = service.client.GenerativeModel(name)
		}
	}
}

func WithTemperature(temp float32) Option {
	return func(service *Service) {
		service.model.SetTemperature(temp)
	}
}

func WithMaxOutputTokens(n int32) Option {
	return func(service *Service) {
		service.model.SetMaxOutputTokens(n)
	}
}

func (s *Service) AskOnce(ctx context.Context, q llm.Question) (llm.Answer, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(q.Content))
	if err != nil {
		return llm.Answer{}, err
	}
	res := parseResponse(resp)
	if res == "" {
		return llm.Answer{}, ErrEmptyAnswer
	}
	answer := llm.Answer{Content: res}
	if resp.UsageMetadata != nil {
		answer.InputToken = int(resp.UsageMetadata.PromptTokenCount)
		answer.OutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return answer, nil
}

func parseResponse(resp *genai.GenerateContentResponse) string {
	var resStr strings.Builder
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for i, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if text, ok := part.(genai.Text); ok {
			if i > 0 {
				resStr.WriteString("\n")
			}
			resStr.WriteString(string(text))
		} else {
			return ""
		}
	}
	return resStr.String()
}
