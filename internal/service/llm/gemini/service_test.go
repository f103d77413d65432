package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
)

func TestParseResponse(t *testing.T) {
	assert.Empty(t, parseResponse(nil))
	assert.Empty(t, parseResponse(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("Volume is unusually high."), genai.Text("Second line.")}},
	}}}
	assert.Equal(t, "Volume is unusually high.\nSecond line.", parseResponse(resp))

	blob := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("a"), genai.Blob{MIMEType: "image/png"}}},
	}}}
	assert.Empty(t, parseResponse(blob))
}
