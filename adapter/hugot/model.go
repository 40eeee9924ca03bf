package hugot

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

type statementsResponse struct {
	Statements []string `json:"statements"`
}

type verdictsResponse struct {
	Verdicts []struct {
		Statement string `json:"statement"`
		Reason    string `json:"reason"`
		Verdict   int    `json:"verdict"`
	} `json:"verdicts"`
}

type classificationResponse struct {
	TruePositives  []string `json:"true_positives"`
	FalsePositives []string `json:"false_positives"`
	FalseNegatives []string `json:"false_negatives"`
}

// ScoreContext rates a context from 1 to 3, the mean of four criteria clamped to that range.
func (a *Adapter) ScoreContext(ctx context.Context, content string) (float64, error) {
	var resp contextScore
	if err := a.generateJSON(ctx, fmt.Sprintf(contextScoringTemplate, content), &resp); err != nil {
		return 0, err
	}
	score := (resp.Clarity + resp.Depth + resp.Structure + resp.Relevance) / 4
	return min(max(score, 1), 3), nil
}

func (a *Adapter) SeedQuestion(ctx context.Context, content string) (string, error) {
	var resp questionResponse
	if err := a.generateJSON(ctx, fmt.Sprintf(seedQuestionTemplate, content), &resp); err != nil {
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
	if err := a.generateJSON(ctx, fmt.Sprintf(critiqueQuestionTemplate, question), &resp); err != nil {
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
	if err := a.generateJSON(ctx, prompt, &resp); err != nil {
		return "", err
	}
	evolved := strings.TrimSpace(resp.Question)
	if evolved == "" {
		return "", fmt.Errorf("empty %s question", evolution)
	}
	return evolved, nil
}

func (a *Adapter) AnswerQuestion(ctx context.Context, question string, contexts []string) (string, error) {
	var resp answerResponse
	prompt := fmt.Sprintf(answerQuestionTemplate, question, strings.Join(contexts, "\n"))
	if err := a.generateJSON(ctx, prompt, &resp); err != nil {
		return "", err
	}
	if resp.Verdict != 1 || strings.TrimSpace(resp.Answer) == "" {
		return "", ErrUnanswerable
	}
	return strings.TrimSpace(resp.Answer), nil
}

// ExtractStatements returns no statements for blank text without calling the model.
func (a *Adapter) ExtractStatements(ctx context.Context, question, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var resp statementsResponse
	if err := a.generateJSON(ctx, fmt.Sprintf(extractStatementsTemplate, question, text), &resp); err != nil {
		return nil, err
	}

	statements := make([]string, 0, len(resp.Statements))
	for _, aStatement := range resp.Statements {
		if aStatement = strings.TrimSpace(aStatement); aStatement != "" {
			statements = append(statements, aStatement)
		}
	}

	return statements, nil
}

func (a *Adapter) VerifyStatements(ctx context.Context, contexts []string, statements []string) ([]rageval.Verdict, error) {
	if len(statements) == 0 {
		return nil, nil
	}

	var resp verdictsResponse
	prompt := fmt.Sprintf(verifyStatementsTemplate, strings.Join(contexts, "\n"), strings.Join(statements, "\n"))
	if err := a.generateJSON(ctx, prompt, &resp); err != nil {
		return nil, err
	}
	if len(resp.Verdicts) != len(statements) {
		return nil, fmt.Errorf("got %d verdicts for %d statements", len(resp.Verdicts), len(statements))
	}

	verdicts := make([]rageval.Verdict, 0, len(resp.Verdicts))
	for i, v := range resp.Verdicts {
		verdicts = append(verdicts, rageval.Verdict{
			Statement: statements[i],
			Reason:    v.Reason,
			Supported: v.Verdict == 1,
		})
	}

	return verdicts, nil
}

func (a *Adapter) ClassifyStatements(ctx context.Context, question string, answer, groundTruth []string) (rageval.Classification, error) {
	var resp classificationResponse
	prompt := fmt.Sprintf(classifyStatementsTemplate, question, strings.Join(answer, "\n"), strings.Join(groundTruth, "\n"))
	if err := a.generateJSON(ctx, prompt, &resp); err != nil {
		return rageval.Classification{}, err
	}

	return rageval.Classification{
		TruePositives:  resp.TruePositives,
		FalsePositives: resp.FalsePositives,
		FalseNegatives: resp.FalseNegatives,
	}, nil
}
