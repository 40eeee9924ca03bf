package googlegenai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"google.golang.org/genai"
)

// generateJSON asks the model for a response following schema and decodes it into out.
// Responses are served from and saved to the cache when one is configured.
func (a *Adapter) generateJSON(ctx context.Context, model, prompt string, schema *genai.Schema, out any) error {
	key, err := cacheKey(model, prompt, schema, a.temperature)
	if err != nil {
		return err
	}

	if a.cache != nil {
		cached, ok, err := a.cache.Get(ctx, key)
		if err != nil {
			a.logger.Sugar().Warnf("cache get failed: %v", err)
		}
		if ok {
			if err := json.Unmarshal([]byte(cached), out); err == nil {
				return nil
			}
			a.logger.Sugar().Warnf("ignoring undecodable cached response for %s", key)
		}
	}

	resp, err := a.client.Models.GenerateContent(
		ctx,
		model,
		genai.Text(prompt),
		a.generateConfig(schema),
	)
	if err != nil {
		return fmt.Errorf("calling generative model: %w", err)
	}
	if len(resp.Candidates) != 1 {
		return fmt.Errorf("got %v candidates, expected 1", len(resp.Candidates))
	}

	text := resp.Text()
	a.logger.Sugar().Debugf("genai response: %s", text)

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("unmarshalling response: %w", err)
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, text); err != nil {
			a.logger.Sugar().Warnf("cache set failed: %v", err)
		}
	}

	return nil
}

// generateConfig requests JSON output with thinking turned off.
func (a *Adapter) generateConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	var (
		temperature    = a.temperature
		thinkingBudget int32
	)
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
		Temperature:      &temperature,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: &thinkingBudget,
		},
	}
}

// cacheKey covers every input that shapes a response: model, prompt, schema and temperature.
func cacheKey(model, prompt string, schema *genai.Schema, temperature float32) (string, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("marshalling schema: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(adapterName))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write(schemaJSON)
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(float64(temperature), 'g', -1, 32)))
	return hex.EncodeToString(h.Sum(nil)), nil
}
