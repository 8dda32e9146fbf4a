package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/erricrr/hf-togetherai-rpg/internal/turn"
	"github.com/erricrr/hf-togetherai-rpg/pkg/prompts"
	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
)

// ErrMalformedExtraction is returned when the model's inventory output is not valid.
var ErrMalformedExtraction = errors.New("malformed inventory extraction")

var _ turn.InventoryExtractor = (*LLMInventoryExtractor)(nil)

const itemUpdatesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["itemUpdates"],
  "properties": {
    "itemUpdates": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "change_amount"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "change_amount": {"type": "integer"}
        }
      }
    }
  }
}`

var itemUpdatesValidator = jsonschema.MustCompileString("item_updates.schema.json", itemUpdatesSchema)

// LLMInventoryExtractor asks the backend model which items the narrative gained or lost.
type LLMInventoryExtractor struct {
	llm    LLMService
	logger *slog.Logger
}

// NewLLMInventoryExtractor creates an extractor backed by llm
func NewLLMInventoryExtractor(llm LLMService, logger *slog.Logger) *LLMInventoryExtractor {
	return &LLMInventoryExtractor{llm: llm, logger: logger}
}

// Extract implements turn.InventoryExtractor
func (e *LLMInventoryExtractor) Extract(ctx context.Context, inv state.Inventory, narrative string) ([]state.ItemUpdate, error) {
	resp, err := e.llm.BackendChat(ctx, prompts.BuildInventoryMessages(inv, narrative))
	if err != nil {
		return nil, err
	}

	updates, err := ParseItemUpdates(resp.Message)
	if err != nil {
		if e.logger != nil {
			e.logger.Error("Failed to parse inventory updates", "error", err, "response", resp.Message)
		}
		return nil, err
	}
	return updates, nil
}

// ParseItemUpdates cleans a model reply and decodes the itemUpdates payload.
// The payload is validated against a JSON schema first, so a missing name or a
// non-integer change_amount is rejected rather than defaulted.
func ParseItemUpdates(raw string) ([]state.ItemUpdate, error) {
	cleaned := cleanJSONResponse(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedExtraction)
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	if err := itemUpdatesValidator.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}

	// Only the first JSON value is read. Trailing text is ignored.
	var payload state.ItemUpdates
	if err := json.NewDecoder(strings.NewReader(cleaned)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	if payload.ItemUpdates == nil {
		return []state.ItemUpdate{}, nil
	}
	return payload.ItemUpdates, nil
}

// cleanJSONResponse strips markdown fences, leading prose, stray backticks and bare "json" lines.
func cleanJSONResponse(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		end := len(lines)
		for i := len(lines) - 1; i > 0; i-- {
			if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
				end = i
				break
			}
		}
		if end > 1 {
			text = strings.Join(lines[1:end], "\n")
		}
	}

	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		if start := strings.Index(text, "{"); start >= 0 {
			text = text[start:]
		}
	}

	text = strings.ReplaceAll(text, "`", "")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "json" && trimmed != "" {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
