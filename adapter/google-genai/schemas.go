package googlegenai

import "google.golang.org/genai"

var (
	stringArray = &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}

	contextScoreSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"clarity":   {Type: genai.TypeNumber},
			"depth":     {Type: genai.TypeNumber},
			"structure": {Type: genai.TypeNumber},
			"relevance": {Type: genai.TypeNumber},
		},
		Required: []string{"clarity", "depth", "structure", "relevance"},
	}

	questionSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question": {Type: genai.TypeString},
		},
		Required: []string{"question"},
	}

	critiqueSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"feedback": {Type: genai.TypeString},
			"verdict":  {Type: genai.TypeInteger},
		},
		Required: []string{"feedback", "verdict"},
	}

	answerSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"answer":  {Type: genai.TypeString},
			"verdict": {Type: genai.TypeInteger},
		},
		Required: []string{"answer", "verdict"},
	}

	statementsSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"statements": stringArray,
		},
		Required: []string{"statements"},
	}

	verdictsSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"verdicts": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"statement": {Type: genai.TypeString},
						"reason":    {Type: genai.TypeString},
						"verdict":   {Type: genai.TypeInteger},
					},
					Required: []string{"statement", "reason", "verdict"},
				},
			},
		},
		Required: []string{"verdicts"},
	}

	classificationSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"true_positives":  stringArray,
			"false_positives": stringArray,
			"false_negatives": stringArray,
		},
		Required: []string{"true_positives", "false_positives", "false_negatives"},
	}
)
