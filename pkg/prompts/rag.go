package prompts

const webSearchSummarizerTemplate = `You are a helpful assistant that summarizes web search results to
answer the user query.

User query: {query}
Search results: {search_results}

Reference the user's chat history when needed:
Chat history: {history}

Provide the answer in the following format:
Answer: <answer>
References:
- <reference1>
- <reference2>
- ...

where each reference is a url from the search results.
`

// WebSearchSummarizer builds the prompt that turns raw search results into a
// cited answer.
func WebSearchSummarizer(history, query, searchResults string) string {
	return render(webSearchSummarizerTemplate,
		"{query}", query,
		"{search_results}", searchResults,
		"{history}", history,
	)
}

const webSearchFallbackTemplate = `Web search is currently unavailable, so no live results could be retrieved.
Answer the user query from your own knowledge, and begin the reply by noting
that it is not backed by current search results.

User query: {query}
`

// WebSearchFallback builds the degraded prompt used when the search call
// failed or returned nothing.
func WebSearchFallback(query string) string {
	return render(webSearchFallbackTemplate, "{query}", query)
}

const documentRAGTemplate = `You are an assistant for question-answering tasks on Office of Personnel Management (OPM)
annual performance documents for the years 2019, 2020, 2021, and 2022. Anything outside of
this scope is not answerable from the documents.

Use the provided pieces of retrieved context to answer the given question.
Your response should be concise, consisting of three sentences maximum.
If the answer is unknown, state explicitly that you do not know.

Reference the user's chat history when needed:
Chat history: {history}

Question: {question}
Context: {retrieved_docs}
`

// DocumentRAG builds the grounded question-answering prompt over retrieved
// document chunks. The reply is produced as a structured answer-plus-sources
// object.
func DocumentRAG(history, question, retrievedDocs string) string {
	return render(documentRAGTemplate,
		"{history}", history,
		"{question}", question,
		"{retrieved_docs}", retrievedDocs,
	)
}

const correctiveGenerationTemplate = `You are an assistant for question-answering tasks. The context below mixes
retrieved OPM (Office of Personnel Management) document excerpts with web search
results that were gathered because local retrieval was insufficient.

Use the context to answer the question concisely, three sentences maximum.
List the filenames or URLs you relied on as sources.
If the answer is not in the context, state explicitly that you do not know.

Reference the user's chat history when needed:
Chat history: {history}

Question: {question}
Context: {context}
`

// CorrectiveGeneration builds the answer prompt for mixed document and web
// context.
func CorrectiveGeneration(history, question, contextText string) string {
	return render(correctiveGenerationTemplate,
		"{history}", history,
		"{question}", question,
		"{context}", contextText,
	)
}

const documentGradingTemplate = `You are an assistant for question-answering tasks on Office of Personnel Management (OPM) annual performance documents for the years 2019, 2020, 2021, and 2022. Determine if the provided context is sufficient to answer the question.

# Steps

1. Understand the Question: Analyze the question to identify what specific information it is asking for.
2. Examine the Retrieved Context: Review all the retrieved documents as a whole to assess if they contain sufficient information to answer the question.
3. Evaluate Sufficiency: Determine if the retrieved context collectively provides enough information based on:
   - Completeness: Does the context contain all necessary information to fully answer the question?
   - Relevance: Is the information in the context directly related to what the question is asking?
   - Clarity: Is the information clear and unambiguous enough to formulate a complete answer?
4. Make a binary decision:
    - 0 (Insufficient): The retrieved context does not contain enough information to answer the question adequately. This could be because:
      - The question asks about information outside the scope of the documents (e.g., years other than 2019-2022)
      - The documents don't contain the specific details requested
      - The information is too vague or incomplete to provide a proper answer
    - 1 (Sufficient): The retrieved context contains adequate information to answer the question. The documents have the necessary details to provide a complete and accurate response.

# Output Format

Return a single binary value:
- 0 if the retrieved context is insufficient to answer the question
- 1 if the retrieved context is sufficient to answer the question

# Notes

- Only consider information from documents covering the years 2019, 2020, 2021, and 2022.
- Questions about years outside this range (e.g., 2029, 2025+) should return 0.
- Questions about entirely different topics (e.g., NASA, other agencies) should return 0.
- Be strict: if the context only partially addresses the question or lacks key details, return 0.

Reference the user's chat history when needed:
Chat history: {history}

Question: {question}
Retrieved documents: {retrieved_docs}
`

// DocumentGrading builds the binary sufficiency-grading prompt for retrieved
// chunks.
func DocumentGrading(history, question, retrievedDocs string) string {
	return render(documentGradingTemplate,
		"{history}", history,
		"{question}", question,
		"{retrieved_docs}", retrievedDocs,
	)
}
