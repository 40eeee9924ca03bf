package hugot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelineBackends"
	"github.com/knights-analytics/hugot/pipelines"
)

// textGenerator is the part of a text generation pipeline the generative model needs.
type textGenerator interface {
	RunWithTemplate(inputs [][]pipelines.Message) (pipelineBackends.PipelineBatchOutput, error)
}

func withTextGenerator(generator textGenerator) Option {
	return func(a *Adapter) {
		a.generative = generator
	}
}

// NewGenerator returns a test set and judge model running a local text generation pipeline in session.
// The model is downloaded into the models dir first if it is not there yet.
func NewGenerator(ctx context.Context, session *hugot.Session, options ...Option) (*Adapter, error) {
	a := newAdapter(options...)
	a.session = session

	a.logger.Sugar().With(
		"model", a.generativeConfig.name,
		"onnx file path", a.generativeConfig.onnxFilePath,
		"max tokens", a.maxTokens,
		"models dir", a.modelsDir,
	).Info("init hugot generator")

	if a.generative != nil {
		return a, nil
	}

	if err := a.initGenerative(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Adapter) initGenerative(ctx context.Context) error {
	if a.generativeConfig.name == "" {
		return fmt.Errorf("generative model must be specified")
	}

	modelPath, err := a.ensureModel(ctx, a.generativeConfig, a.modelsDir)
	if err != nil {
		return fmt.Errorf("failed to get generative model: %w", err)
	}

	config := hugot.TextGenerationConfig{
		ModelPath:    modelPath,
		Name:         "textGenerationPipeline",
		OnnxFilename: a.generativeConfig.onnxFilePath,
		Options: []pipelineBackends.PipelineOption[*pipelines.TextGenerationPipeline]{
			pipelines.WithMaxTokens(a.maxTokens),
			pipelines.WithGemmaTemplate(),
		},
	}

	pipeline, err := hugot.NewPipeline(a.session, config)
	if err != nil {
		return fmt.Errorf("failed to create text generation pipeline: %w", err)
	}
	a.generative = pipeline

	return nil
}

// generateJSON runs prompt through the local model and decodes the JSON it answers with into out.
// Generation is serialised since the session runs a single pipeline.
func (a *Adapter) generateJSON(ctx context.Context, prompt string, out any) error {
	if a.generative == nil {
		return fmt.Errorf("text generation pipeline not initialised")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.generativeMu.Lock()
	batchResult, err := a.generative.RunWithTemplate([][]pipelines.Message{
		{
			{Role: "user", Content: prompt},
		},
	})
	a.generativeMu.Unlock()
	if err != nil {
		return fmt.Errorf("calling generative model: %w", err)
	}

	outputs := batchResult.GetOutput()
	if len(outputs) != 1 {
		return fmt.Errorf("got %d generative outputs, expected 1", len(outputs))
	}
	result, ok := outputs[0].(string)
	if !ok {
		return fmt.Errorf("unexpected generative output type %T", outputs[0])
	}

	a.logger.Sugar().Debugf("hugot response: %s", result)

	if err := json.Unmarshal([]byte(extractJSON(result)), out); err != nil {
		return fmt.Errorf("unmarshalling response: %w", err)
	}

	return nil
}

// extractJSON strips the markdown fence and any chatter local models put around a JSON object.
func extractJSON(result string) string {
	result = strings.TrimSpace(result)
	result = strings.TrimPrefix(result, "```json")
	result = strings.TrimPrefix(result, "```")
	result = strings.TrimSuffix(result, "```")

	start, end := strings.Index(result, "{"), strings.LastIndex(result, "}")
	if start < 0 || end < start {
		return strings.TrimSpace(result)
	}
	return result[start : end+1]
}
