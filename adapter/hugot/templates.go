package hugot

// Local models get no response schema, so every template spells out the JSON it expects.

const contextScoringTemplate = `
Rate the context below from 1 (low) to 3 (high) on four criteria:
clarity (precise and easy to understand), depth (detailed and insightful),
structure (well organised with a logical flow) and relevance (focused on one topic).

Context:
%s

Respond only with JSON of the form:
{"clarity": 1, "depth": 1, "structure": 1, "relevance": 1}
`

const seedQuestionTemplate = `
Write one self contained question that can be fully answered from the context below.
Do not mention "the context" in the question.

Context:
%s

Respond only with JSON of the form:
{"question": "..."}
`

const critiqueQuestionTemplate = `
Judge whether the question below can be understood without any extra document and
whether it is clear what kind of answer it asks for. Set verdict to 1 if both hold,
otherwise 0, and explain why in feedback.

Question:
%s

Respond only with JSON of the form:
{"feedback": "...", "verdict": 1}
`

const reasoningQuestionTemplate = `
Rewrite the question below into a short multi-hop reasoning question. Answering it
must need several logical steps over the context and nothing outside it. Do not
mention "the context" in the question.

Question:
%s

Context:
%s

Respond only with JSON of the form:
{"question": "..."}
`

const multiContextQuestionTemplate = `
Rewrite the question below so that answering it needs information from every one of
the contexts and nothing outside them. Keep it short and do not mention "the context".

Question:
%s

Contexts, one per line:
%s

Respond only with JSON of the form:
{"question": "..."}
`

const answerQuestionTemplate = `
Answer the question using only the context. Set verdict to 1 and give the full answer
if the context answers the question, otherwise set verdict to -1 and leave answer empty.

Question:
%s

Context:
%s

Respond only with JSON of the form:
{"answer": "...", "verdict": 1}
`

const extractStatementsTemplate = `
Break every sentence of the text into statements that make sense on their own,
replacing pronouns with the nouns they refer to. Return an empty list when the text
makes no claims.

Question:
%s

Text:
%s

Respond only with JSON of the form:
{"statements": ["..."]}
`

const verifyStatementsTemplate = `
For each statement give verdict 1 if it can be directly inferred from the context,
otherwise 0, with a short reason. Keep the order of the statements.

Context:
%s

Statements, one per line:
%s

Respond only with JSON of the form:
{"verdicts": [{"statement": "...", "reason": "...", "verdict": 1}]}
`

const classifyStatementsTemplate = `
Classify each statement as true_positives (in the answer and supported by the ground
truth), false_positives (in the answer but not supported by the ground truth) or
false_negatives (in the ground truth but missing from the answer). Every statement
goes in exactly one list, copied verbatim.

Question:
%s

Answer statements, one per line:
%s

Ground truth statements, one per line:
%s

Respond only with JSON of the form:
{"true_positives": ["..."], "false_positives": ["..."], "false_negatives": ["..."]}
`
