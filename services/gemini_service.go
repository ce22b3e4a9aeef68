package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fachrudin/misteri-backend/config"
	"github.com/fachrudin/misteri-backend/models"
	"github.com/fachrudin/misteri-backend/shared"
	"github.com/sirupsen/logrus"
)

// GeminiService wraps the Gemini generateContent API behind the Generator
// contract. It always requests schema-constrained JSON output and parses
// defensively; provider error detail stays at this boundary (logged only).
type GeminiService struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
}

func NewGeminiService(cfg *config.Config, factory *shared.HTTPClientFactory) *GeminiService {
	return &GeminiService{
		client:  factory.CreateOptimizedHTTPClient(cfg.GetGeminiTimeout()),
		apiKey:  cfg.GeminiAPIKey,
		baseURL: strings.TrimRight(cfg.GeminiBaseURL, "/"),
		model:   cfg.GeminiModel,
	}
}

// Request/response shapes mirror the Gemini REST API.
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiSchemaProperty struct {
	Type string `json:"type"`
}

type geminiResponseSchema struct {
	Type       string                          `json:"type"`
	Properties map[string]geminiSchemaProperty `json:"properties"`
	Required   []string                        `json:"required"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string                `json:"responseMimeType"`
	ResponseSchema   *geminiResponseSchema `json:"responseSchema,omitempty"`
}

type geminiGenerateRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate performs a single best-effort generation call and parses the
// returned text as a flat JSON payload. Schema validation beyond JSON
// well-formedness is the resolver's job.
func (s *GeminiService) Generate(ctx context.Context, prompt string, schema Schema) (models.Payload, error) {
	text, err := s.GenerateRaw(ctx, prompt, &schema)
	if err != nil {
		return nil, err
	}

	var payload models.Payload
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "GeminiService",
			"error":     err,
		}).Warn("Provider returned non-JSON text")
		return nil, shared.NewServiceError(shared.ErrorCategoryGeneration, "MALFORMED_OUTPUT",
			"provider returned malformed output", "gemini-service", "generate", false, err)
	}

	return payload, nil
}

// GenerateRaw returns the provider's raw text for a prompt. When schema is
// non-nil the request asks for schema-constrained JSON output, which reduces
// parse failures considerably.
func (s *GeminiService) GenerateRaw(ctx context.Context, prompt string, schema *Schema) (string, error) {
	reqBody := geminiGenerateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   buildResponseSchema(schema),
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", shared.NewServiceError(shared.ErrorCategoryGeneration, "PROVIDER_UNREACHABLE",
			"generation provider unreachable", "gemini-service", "generate", true, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logrus.WithFields(logrus.Fields{
			"component":   "GeminiService",
			"status_code": resp.StatusCode,
			"body":        string(respBody),
		}).Warn("Provider returned non-success status")
		return "", shared.NewServiceError(shared.ErrorCategoryGeneration, "PROVIDER_ERROR",
			fmt.Sprintf("provider status %d", resp.StatusCode), "gemini-service", "generate", true, nil)
	}

	var genResp geminiGenerateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", shared.NewServiceError(shared.ErrorCategoryGeneration, "EMPTY_RESPONSE",
			"provider returned no candidates", "gemini-service", "generate", true, nil)
	}

	return strings.TrimSpace(genResp.Candidates[0].Content.Parts[0].Text), nil
}

func buildResponseSchema(schema *Schema) *geminiResponseSchema {
	if schema == nil || len(schema.Fields) == 0 {
		return nil
	}

	properties := make(map[string]geminiSchemaProperty, len(schema.Fields))
	for name, ft := range schema.Fields {
		propType := "STRING"
		if ft == FieldNumber {
			propType = "NUMBER"
		}
		properties[name] = geminiSchemaProperty{Type: propType}
	}

	return &geminiResponseSchema{
		Type:       "OBJECT",
		Properties: properties,
		Required:   schema.Required,
	}
}

// stripCodeFences removes markdown fences some models wrap around JSON even
// when structured output was requested.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
