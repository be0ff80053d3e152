// Package vision talks to an OpenAI-compatible vision model to extract
// structured medication data from images and free text.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"MedTracker/internal/config"
	"MedTracker/internal/domain"
	"MedTracker/internal/ports"
)

const prescriptionPrompt = `You are a medical prescription analyzer. Extract medication information from prescription images.
Return ONLY a valid JSON object with this exact structure (no markdown, no extra text):
{
    "name": "medication name",
    "generic_name": "generic/scientific name if visible",
    "brand_name": "brand name if different from name",
    "dosage": "dosage amount (e.g., 400 mg)",
    "frequency": "how often to take (e.g., twice daily, every 8 hours)",
    "instructions": "doctor's instructions",
    "notes": "any additional notes",
    "manufacturer": "manufacturer name if visible",
    "strength": "strength/concentration",
    "route_of_administration": "how to take it (oral, topical, etc.)",
    "criticality": "one of: low, medium, high, critical"
}

If any field is not clearly visible or uncertain, use null for that field.
Be conservative - only include information you're confident about.`

const packagePrompt = `You are a medication package analyzer. Extract medication information from photos of medication bottles, boxes and blister packs.
Return ONLY a valid JSON object with the same structure as a prescription analysis (no markdown, no extra text), including a "criticality" field rated one of: low, medium, high, critical.
If any field is not clearly visible or uncertain, use null for that field.`

const textPrompt = `You are a medication risk analyzer. Given medication details, assess how critical strict adherence is.
Return ONLY a valid JSON object (no markdown, no extra text):
{
    "criticality": "one of: low, medium, high, critical",
    "notes": "one-sentence rationale"
}`

// Client implements ports.Classifier backed by OpenAI-compatible APIs.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Classifier = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.VisionConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// AnalyzePrescription extracts structured fields from a prescription image.
func (c *Client) AnalyzePrescription(ctx context.Context, image []byte, mimeType string) (domain.MedicationAnalysis, error) {
	content, err := c.chatWithImage(ctx, prescriptionPrompt,
		"Please analyze this prescription image and extract all medication information. Return only the JSON object, no other text.",
		image, mimeType)
	if err != nil {
		return domain.MedicationAnalysis{}, err
	}
	return parseAnalysis(content)
}

// AnalyzePackage extracts structured fields from a medication package photo.
func (c *Client) AnalyzePackage(ctx context.Context, image []byte, mimeType string) (domain.MedicationAnalysis, error) {
	content, err := c.chatWithImage(ctx, packagePrompt,
		"Please analyze this medication package and extract all medication information. Return only the JSON object, no other text.",
		image, mimeType)
	if err != nil {
		return domain.MedicationAnalysis{}, err
	}
	return parseAnalysis(content)
}

// AnalyzeText rates adherence criticality from free-text medication fields.
func (c *Client) AnalyzeText(ctx context.Context, fields domain.MedicationFields) (domain.MedicationAnalysis, error) {
	description, err := json.Marshal(fields)
	if err != nil {
		return domain.MedicationAnalysis{}, fmt.Errorf("marshal fields: %w", err)
	}

	content, err := c.chat(ctx, []message{
		{Role: "system", Content: textPrompt},
		{Role: "user", Content: string(description)},
	})
	if err != nil {
		return domain.MedicationAnalysis{}, err
	}

	analysis, err := parseAnalysis(content)
	if err != nil {
		return domain.MedicationAnalysis{}, err
	}
	analysis.Fields = fields
	return analysis, nil
}

// ExtractText runs plain OCR over an image.
func (c *Client) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	return c.chatWithImage(ctx, "",
		"Extract all visible text from this image. Return it as plain text, preserving the layout as much as possible.",
		image, mimeType)
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

func (c *Client) chatWithImage(ctx context.Context, system, instruction string, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	var messages []message
	if system != "" {
		messages = append(messages, message{Role: "system", Content: system})
	}
	messages = append(messages, message{
		Role: "user",
		Content: []map[string]any{
			{"type": "text", "text": instruction},
			{"type": "image_url", "image_url": map[string]string{"url": dataURL, "detail": "high"}},
		},
	})

	return c.chat(ctx, messages)
}

func (c *Client) chat(ctx context.Context, messages []message) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("vision client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"messages":    messages,
		"max_tokens":  1000,
		"temperature": 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("marshal vision payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("vision error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("vision response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// parseAnalysis decodes the model's JSON verdict. Markdown fences are
// stripped first; an absent or unknown criticality defaults to medium.
func parseAnalysis(content string) (domain.MedicationAnalysis, error) {
	cleaned := stripFences(content)

	var payload struct {
		domain.MedicationFields
		Criticality string `json:"criticality"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return domain.MedicationAnalysis{}, fmt.Errorf("could not parse medication information: %w", err)
	}

	criticality := domain.Criticality(strings.ToLower(strings.TrimSpace(payload.Criticality)))
	if !criticality.Valid() {
		criticality = domain.CriticalityMedium
	}

	confidence := "medium"
	if payload.MedicationFields.FilledCount() > 5 {
		confidence = "high"
	}

	return domain.MedicationAnalysis{
		Fields:      payload.MedicationFields,
		Criticality: criticality,
		Confidence:  confidence,
	}, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
