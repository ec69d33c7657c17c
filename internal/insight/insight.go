// Package insight turns a reconciliation summary into a written analysis.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/cleared-dev/recon/internal/report"
)

// ErrNoAPIKey is returned when the Gemini narrator has no key configured.
var ErrNoAPIKey = errors.New("no Gemini API key (set GEMINI_API_KEY)")

// BuildPrompt renders the instructions and the summary sent to the model.
func BuildPrompt(s report.Summary) string {
	var b strings.Builder
	b.WriteString("Write an analysis of the following ledger reconciliation results.\n\n")

	fmt.Fprintf(&b, "Total records: %d\n", s.Total)
	fmt.Fprintf(&b, "Matched: %d\n", s.Matched)
	fmt.Fprintf(&b, "Discrepancy: %d\n", s.Discrepancy)
	fmt.Fprintf(&b, "Missing: %d\n", s.Missing)
	fmt.Fprintf(&b, "Validation percentage: %s%%\n", s.ValidationPct.StringFixed(2))
	if s.LargestKey != "" {
		fmt.Fprintf(&b, "Largest difference: %s (transaction %s", s.LargestDifference.StringFixed(2), s.LargestKey)
		if s.LargestDate != "" {
			fmt.Fprintf(&b, ", date %s", s.LargestDate)
		}
		b.WriteString(")\n")
	}
	if s.TopOutlet != "" {
		fmt.Fprintf(&b, "Outlet with most discrepancies: %s (%d)\n", s.TopOutlet, s.TopOutletCount)
	}

	b.WriteString("\nDifference distribution:\n")
	for _, cc := range s.Categories {
		fmt.Fprintf(&b, "- %s: %d\n", cc.Category, cc.Count)
	}

	b.WriteString("\nThe analysis must cover insights, anomalies and suggestions for fixing the data.\n")
	b.WriteString("Treat records whose difference comes from system rounding as valid.\n")
	b.WriteString("Explain possible reasons behind the difference distribution.\n")
	b.WriteString("Small differences are most likely caused by system rounding; say so in the analysis.\n")
	return b.String()
}

// generator is the part of genai.Models the narrator uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiNarrator asks a Gemini model for the analysis.
type GeminiNarrator struct {
	models      generator
	model       string
	temperature float32
}

// NewGeminiNarrator creates a narrator on the Gemini API.
func NewGeminiNarrator(ctx context.Context, apiKey, model string, temperature float32) (*GeminiNarrator, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiNarrator{models: client.Models, model: model, temperature: temperature}, nil
}

// Narrate writes an analysis of s.
func (n *GeminiNarrator) Narrate(ctx context.Context, s report.Summary) (string, error) {
	resp, err := n.models.GenerateContent(ctx, n.model, genai.Text(BuildPrompt(s)), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(n.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("generating analysis with %s: %w", n.model, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("model %s returned no text", n.model)
	}
	return text, nil
}
