// Package prompts holds the prompt templates for every agent variant.
// Templates use {name} placeholders filled by the exported builder functions,
// so literal text never fights with format verbs.
package prompts

import "strings"

func render(template string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(template)
}

const classifierTemplate = `Classify the given user question into one of the specified categories based on its nature.

- Factual Questions: Questions starting with phrases like "What is...?" or "Who invented...?" should be classified as 'factual'.
- Analytical Questions: Questions starting with phrases like "How does...?" or "Why do...?" should be classified as 'analytical'.
- Comparison Questions: Questions starting with phrases like "What's the difference between...?" should be classified as 'comparison'.
- Definition Requests: Questions starting with phrases like "Define..." or "Explain..." should be classified as 'definition'.

If the question does not fit into any of these categories, return 'default'.

# Steps

1. Analyze the user question.
2. Determine which category the question fits into based on its structure and keywords.
3. Return the corresponding category or 'default' if none apply.

# Output Format

- Return only the category word: 'factual', 'analytical', 'comparison', 'definition', or 'default'.
- Do not include any extra text or quotes in the output.

# Examples

- Question: What is the highest mountain in the world?
  Response: factual

- Question: What's the difference between OpenAI and Anthropic?
  Response: comparison

User question: {question}
`

const classifierWithToolsTemplate = `Classify the given user question into one of the specified categories based on its nature, including all defined categories.

- Factual Questions: Questions starting with phrases like "What is...?" or "Who invented...?" should be classified as 'factual'.
- Analytical Questions: Questions starting with phrases like "How does...?" or "Why do...?" should be classified as 'analytical'.
- Comparison Questions: Questions starting with phrases like "What's the difference between...?" should be classified as 'comparison'.
- Definition Requests: Questions starting with phrases like "Define..." or "Explain..." should be classified as 'definition'.
- Datetime Questions: Questions related to date or time computation should be classified as 'datetime'.
- Calculation Questions: Questions requiring mathematical computation, not associated with date or time, should be classified as 'calculation'.

If the question does not fit into any of these categories, return 'default'.

# Steps

1. Analyze the user question.
2. Determine which category the question fits into based on its structure and keywords.
3. Return the corresponding category or 'default' if none apply.

# Output Format

- Return only the category word: 'factual', 'analytical', 'comparison', 'definition', 'datetime', 'calculation', or 'default'.
- Do not include any extra text or quotes in the output.

# Examples

- Question: What is the highest mountain in the world?
  Response: factual

- Question: What's the difference between OpenAI and Anthropic?
  Response: comparison

- Question: What's an 18% tip of a $105 bill?
  Response: calculation

- Question: What day is it today?
  Response: datetime

User question: {question}
`

const classifierWithHistoryTemplate = `Classify the given user question into one of the specified categories based on its nature, including all defined categories.

- Factual Questions: Questions starting with phrases like "What is...?" or "Who invented...?" should be classified as 'factual'.
- Analytical Questions: Questions starting with phrases like "How does...?" or "Why do...?" should be classified as 'analytical'.
- Comparison Questions: Questions starting with phrases like "What's the difference between...?" should be classified as 'comparison'.
- Definition Requests: Questions starting with phrases like "Define..." or "Explain..." should be classified as 'definition'.
- Datetime Questions: Questions related to date or time computation should be classified as 'datetime'.
- Calculation Questions: Questions requiring mathematical computation, not associated with date or time, should be classified as 'calculation'.

If the question does not fit into any of these categories, return 'default'.

# Output Format

- Return only the category word: 'factual', 'analytical', 'comparison', 'definition', 'datetime', 'calculation', or 'default'.
- Do not include any extra text or quotes in the output.

# Examples

- Question: What is the highest mountain in the world?
  Response: factual

- Question: What's an 18% tip of a $105 bill?
  Response: calculation

- Question: What day is it today?
  Response: datetime

Use information from the conversation history only if relevant to the above user query, otherwise ignore the history.
Conversation history with the user:
{history}

User question: {question}
`

const historyPreamble = `Use information from the conversation history only if relevant to the above user query, otherwise ignore the history.
Conversation history with the user:
{history}

`

// Classifier builds the five-category classification prompt.
func Classifier(question string) string {
	return render(classifierTemplate, "{question}", question)
}

// ClassifierWithTools builds the seven-category classification prompt that
// also covers the calculation and datetime tools.
func ClassifierWithTools(question string) string {
	return render(classifierWithToolsTemplate, "{question}", question)
}

// ClassifierWithHistory builds the seven-category classification prompt with
// the conversation so far.
func ClassifierWithHistory(history, question string) string {
	return render(classifierWithHistoryTemplate, "{history}", history, "{question}", question)
}

var responseTemplates = map[string]string{
	"factual": `Answer the following question concisely with a direct fact. Avoid unnecessary details.

{history_block}User question: "{question}"
Answer:
`,
	"analytical": `Provide a detailed explanation with reasoning for the following question. Break down the response into logical steps.

{history_block}User question: "{question}"
Explanation:
`,
	"comparison": `Compare the following concepts. Present the answer in a structured format using bullet points or a table for clarity.

{history_block}User question: "{question}"
Comparison:
`,
	"definition": `Define the following term and provide relevant examples and use cases for better understanding.

{history_block}User question: "{question}"
Definition:
Examples:
Use Cases:
`,
	"default": `Respond your best to answer the following question but keep it very brief.

{history_block}User question: "{question}"
Answer:
`,
}

// Response builds the response-composition prompt for a classified category.
// Unknown categories fall through to the default prompt.
func Response(category, question string) string {
	return ResponseWithHistory(category, "", question)
}

// ResponseWithHistory is Response with the conversation so far included.
func ResponseWithHistory(category, history, question string) string {
	template, ok := responseTemplates[category]
	if !ok {
		template = responseTemplates["default"]
	}
	historyBlock := ""
	if history != "" {
		historyBlock = render(historyPreamble, "{history}", history)
	}
	return render(template, "{history_block}", historyBlock, "{question}", question)
}

const calculationTemplate = `You are a smart AI model but cannot do any complex calculations. You are very good at
translating a math question to a simple equation which can be solved by a calculator.

Convert the user question below to a math calculation.
Remember that the calculator can only use +, -, *, /, //, % operators,
so only use those operators and output the final math equation.

Examples:
Question: What is 5 times 20?
Answer: 5 * 20

Question: What is the split of each person for a 4 person dinner of $100 with 20% tip?
Answer: (100 + 0.2*100) / 4

Question: Round 100.5 to the nearest integer.
Answer: 100.5 // 1

{history_block}User Query: "{question}"

The final output should ONLY contain the valid math equation, no words or any other text.
Otherwise the calculator tool will error out.
`

// CalculationExpression builds the prompt that turns a question into a
// calculator expression.
func CalculationExpression(history, question string) string {
	historyBlock := ""
	if history != "" {
		historyBlock = render(historyPreamble, "{history}", history)
	}
	return render(calculationTemplate, "{history_block}", historyBlock, "{question}", question)
}

const toolAnswerTemplate = `Answer the user's question using the tool result below. Reply with the direct
answer in one or two short sentences. Do not mention the tool or the raw result format.

Tool result: {result}

{history_block}User question: "{question}"
Answer:
`

// ToolAnswer builds the prompt that composes the final reply from a tool result.
func ToolAnswer(history, question, result string) string {
	historyBlock := ""
	if history != "" {
		historyBlock = render(historyPreamble, "{history}", history)
	}
	return render(toolAnswerTemplate, "{history_block}", historyBlock, "{question}", question, "{result}", result)
}

const toolApologyTemplate = `The tool needed to answer the user's question failed. Apologize briefly in one or
two sentences, explain in plain words what went wrong, and invite the user to rephrase.
Do not mention tool names and do not show the raw error text.

Error: {error}

User question: "{question}"
Apology:
`

// ToolApology builds the prompt that turns a tool failure into a graceful reply.
func ToolApology(question, errText string) string {
	return render(toolApologyTemplate, "{question}", question, "{error}", errText)
}
