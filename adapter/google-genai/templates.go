package googlegenai

const contextScoringTemplate = `
Given a context, perform the following task and output the answer in JSON format
according to the provided schema.

Evaluate the provided context and assign a numerical score of 1 (Low), 2 (Medium),
or 3 (High) for each of the following criteria:
1. clarity: Evaluate the precision and understandability of the information presented.
   High scores (3) are reserved for contexts that are both precise in their information
   and easy to understand. Low scores (1) are for contexts where the information is vague
   or hard to comprehend.
2. depth: Determine the level of detailed examination and the inclusion of innovative
   insights within the context. A high score indicates a comprehensive and insightful
   analysis, while a low score suggests a superficial treatment of the topic.
3. structure: Assess how well the content is organized and whether it flows logically.
   High scores are awarded to contexts that demonstrate coherent organization and logical
   progression, whereas low scores indicate a lack of structure or clarity in progression.
4. relevance: Judge the pertinence of the content to the main topic, awarding high scores
   to contexts tightly focused on the subject without unnecessary digressions, and low
   scores to those that are cluttered with irrelevant information.

Context:
%s
`

const seedQuestionTemplate = `
Generate a question that can be fully answered from the given context. The question
should be formed using topics from the context. Do not use phrases like "provided
context" in the question. The question must be self contained, a reader who never saw
the context must understand what is being asked.

Context:
%s
`

const critiqueQuestionTemplate = `
Assess the given question for clarity and answerability given enough domain knowledge.
Consider the following criteria:
1. Independence: Can the question be understood and answered without needing additional
   context or access to external references not provided within the question itself?
   Questions should be self-contained, meaning they should not rely on specific documents,
   tables, or prior knowledge not shared within the question.
2. Clear intent: Is it clear what type of answer or information the question seeks?
   The question should convey its purpose without ambiguity, allowing for a direct and
   relevant response.

Based on these criteria, set verdict to 1 if the question is specific, independent and has
a clear intent, otherwise set it to 0. Explain the verdict in the feedback field.

Question:
%s
`

const reasoningQuestionTemplate = `
Complicate the given question by rewriting it into a multi-hop reasoning question based
on the provided context. Answering the question should require the reader to make multiple
logical connections or inferences using the information available in the given context.
Rules to follow when rewriting the question:
1. Ensure that the rewritten question can be answered entirely from the information present
   in the context.
2. Do not frame questions that contain more than 15 words. Use abbreviation wherever possible.
3. Make sure the question is clear and unambiguous.
4. Phrases like "based on the provided context", "according to the context", etc. are not
   allowed to appear in the question.

Question:
%s

Context:
%s
`

const multiContextQuestionTemplate = `
Complicate the given question by rewriting it so that answering it requires information
derived from every one of the given contexts. Follow the rules below while rewriting:
1. The rewritten question should not be very long. Use abbreviation wherever possible.
2. The rewritten question must be reasonable and must be understood and responded by humans.
3. The rewritten question must be fully answerable from information present in the contexts.
4. Read and understand all contexts and rewrite the question so that answering requires
   insight from every context.
5. Phrases like "based on the provided context", "according to the context", etc. are not
   allowed to appear in the question.

Question:
%s

Contexts, one per line:
%s
`

const answerQuestionTemplate = `
Answer the question using the information from the given context. Set verdict to 1 if the
question can be answered from the context and put the full answer in the answer field.
If the question cannot be answered from the context, set verdict to -1 and leave the
answer empty.

Question:
%s

Context:
%s
`

const extractStatementsTemplate = `
Given a question and a text, break down each sentence of the text into one or more fully
understandable statements. Every statement must make sense on its own, so replace pronouns
with the nouns they refer to. Do not use any JSON formatting inside the statements.
Return an empty list of statements when the text is empty or contains no claims.

Question:
%s

Text:
%s
`

const verifyStatementsTemplate = `
Your task is to judge the faithfulness of a series of statements based on a given context.
For each statement, return verdict 1 if the statement can be directly inferred from the
context, or 0 if the statement can not be directly inferred from the context. Give a short
reason for every verdict. Return the verdicts in the same order as the statements.

Context:
%s

Statements, one per line:
%s
`

const classifyStatementsTemplate = `
Given a ground truth and an answer, each broken down into statements, analyze each statement
and classify it in one of the following categories:
- true_positives: statements present in the answer that are also directly supported by one
  or more statements in the ground truth,
- false_positives: statements present in the answer but not directly supported by any
  statement in the ground truth,
- false_negatives: statements found in the ground truth but not present in the answer.
Each statement can only belong to one of the categories. Copy statements verbatim.

Question:
%s

Answer statements, one per line:
%s

Ground truth statements, one per line:
%s
`
