package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/costwatch/receipt-scanner-service/internal/models"
)

// Provider is an AI backend able to read a receipt document and answer a
// prompt about it.
type Provider interface {
	// ExtractData sends the document plus prompt and returns the raw model
	// response text.
	ExtractData(ctx context.Context, prompt string, mimeType string, document []byte) (string, error)
}

// extractionPrompt instructs the model to emit every receipt line verbatim,
// one JSON item per line, including TPD discount lines and trailing minus
// signs. Cleanup happens downstream in the normalizer, never in the model.
const extractionPrompt = `Extract all lines from this Costco receipt as items.
Return ONLY valid JSON with this exact structure, no other text:
{
  "store": "store location or number",
  "receipt_date": "YYYY-MM-DD",
  "items": [
    {"name": "ITEM NAME", "price": "12.99", "qty": "1", "item_number": "1234567"}
  ]
}
Rules:
- Include EVERY line as a separate item, including TPD lines
- TPD lines should have name like "TPD/SHOES" or "TPD/3333332" exactly as shown
- Price should be a string with 2 decimals. If price ends with "-" on receipt, include the minus sign (e.g. "10.00-")
- qty defaults to "1" if not shown
- item_number = the number shown before the item name on that line. Empty string if not visible.
- Do NOT merge or combine any lines
- Do NOT skip any lines
- Ignore tax lines, subtotals, totals, payment lines
- receipt_date should be extracted from the receipt date field`

// Extractor turns a receipt PDF into raw extraction lines via an AI provider.
type Extractor struct {
	provider Provider
}

// NewExtractor creates a new receipt extractor
func NewExtractor(provider Provider) *Extractor {
	return &Extractor{provider: provider}
}

// ExtractReceipt sends the PDF to the provider and parses the JSON response.
// The returned items are raw: TPD lines, noise lines and embedded item
// numbers are all still present for the normalizer to deal with.
func (e *Extractor) ExtractReceipt(ctx context.Context, pdfData []byte) (*models.ParsedReceipt, float64, error) {
	startTime := time.Now()

	response, err := e.provider.ExtractData(ctx, extractionPrompt, "application/pdf", pdfData)
	if err != nil {
		return nil, 0, fmt.Errorf("AI extraction failed: %w", err)
	}

	duration := time.Since(startTime).Seconds()

	parsed, err := parseResponse(response)
	if err != nil {
		return nil, duration, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return parsed, duration, nil
}

// parseResponse converts the AI JSON response to a ParsedReceipt, stripping
// markdown code fences the model sometimes wraps it in.
func parseResponse(response string) (*models.ParsedReceipt, error) {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var parsed models.ParsedReceipt
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	return &parsed, nil
}
