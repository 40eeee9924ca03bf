package googlegenai

import (
	"context"
	"fmt"
	"strings"

	"github.com/RichardKnop/rageval"
)

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

// ExtractStatements returns no statements for blank text without calling the model.
func (a *Adapter) ExtractStatements(ctx context.Context, question, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var resp statementsResponse
	if err := a.generateJSON(ctx, a.criticModel, fmt.Sprintf(extractStatementsTemplate, question, text), statementsSchema, &resp); err != nil {
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
	if err := a.generateJSON(ctx, a.criticModel, prompt, verdictsSchema, &resp); err != nil {
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
	if err := a.generateJSON(ctx, a.criticModel, prompt, classificationSchema, &resp); err != nil {
		return rageval.Classification{}, err
	}

	return rageval.Classification{
		TruePositives:  resp.TruePositives,
		FalsePositives: resp.FalsePositives,
		FalseNegatives: resp.FalseNegatives,
	}, nil
}
