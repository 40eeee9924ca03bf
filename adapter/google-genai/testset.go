package googlegenai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RichardKnop/rageval"
)

var ErrUnanswerable = errors.New("question cannot be answered from the contexts")

type contextScore struct {
	Clarity   float64 `json:"clarity"`
	Depth     float64 `json:"depth"`
	Structure float64 `json:"structure"`
	Relevance float64 `json:"relevance"`
}

type questionResponse struct {
	Question string `json:"question"`
}

type critiqueResponse struct {
	Feedback string `json:"feedback"`
	Verdict  int    `json:"verdict"`
}

type answerResponse struct {
	Answer  string `json:"answer"`
	Verdict int    `json:"verdict"`
}

// ScoreContext rates a context from 1 to 3, the mean of four criteria.
func (a *Adapter) ScoreContext(ctx context.Context, content string) (float64, error) {
	var resp contextScore
	if err := a.generateJSON(ctx, a.criticModel, fmt.Sprintf(contextScoringTemplate, content), contextScoreSchema, &resp); err != nil {
		return 0, err
	}
	return (resp.Clarity + resp.Depth + resp.Structure + resp.Relevance) / 4, nil
}

func (a *Adapter) SeedQuestion(ctx context.Context, content string) (string, error) {
	var resp questionResponse
	if err := a.generateJSON(ctx, a.generativeModel, fmt.Sprintf(seedQuestionTemplate, content), questionSchema, &resp); err != nil {
		return "", err
	}
	question := strings.TrimSpace(resp.Question)
	if question == "" {
		return "", fmt.Errorf("empty seed question")
	}
	return question, nil
}

func (a *Adapter) CritiqueQuestion(ctx context.Context, question string) (bool, error) {
	var resp critiqueResponse
	if err := a.generateJSON(ctx, a.criticModel, fmt.Sprintf(critiqueQuestionTemplate, question), critiqueSchema, &resp); err != nil {
		return false, err
	}
	if resp.Verdict != 1 {
		a.logger.Sugar().Debugf("question rejected: %s, feedback: %s", question, resp.Feedback)
	}
	return resp.Verdict == 1, nil
}

func (a *Adapter) EvolveQuestion(ctx context.Context, evolution rageval.EvolutionType, question string, contexts []string) (string, error) {
	var prompt string
	switch evolution {
	case rageval.EvolutionReasoning:
		prompt = fmt.Sprintf(reasoningQuestionTemplate, question, strings.Join(contexts, "\n"))
	case rageval.EvolutionMultiContext:
		prompt = fmt.Sprintf(multiContextQuestionTemplate, question, strings.Join(contexts, "\n"))
	case rageval.EvolutionSimple:
		return question, nil
	default:
		return "", fmt.Errorf("invalid evolution type: %s", evolution)
	}

	var resp questionResponse
	if err := a.generateJSON(ctx, a.generativeModel, prompt, questionSchema, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Question), nil
}

func (a *Adapter) AnswerQuestion(ctx context.Context, question string, contexts []string) (string, error) {
	var resp answerResponse
	prompt := fmt.Sprintf(answerQuestionTemplate, question, strings.Join(contexts, "\n"))
	if err := a.generateJSON(ctx, a.generativeModel, prompt, answerSchema, &resp); err != nil {
		return "", err
	}
	if resp.Verdict != 1 || strings.TrimSpace(resp.Answer) == "" {
		return "", ErrUnanswerable
	}
	return strings.TrimSpace(resp.Answer), nil
}
