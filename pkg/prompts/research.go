package prompts

const researchManagerTemplate = `You are a Research Manager responsible for planning comprehensive research reports.

Your task is to:
1. Take a broad research topic
2. Break it down into 3-5 specific research questions/sections
3. Create a research plan with a clear structure

For each research question, provide:
- A clear title
- A description of what should be researched

DO NOT conduct the actual research. You are only planning the structure.

The report structure should follow:
- Executive Summary
- Key Findings
- Detailed Analysis (sections for each research question)
- Limitations and Further Research

Return your answer as a structured research plan.

Research Topic: {topic}
`

// ResearchManager builds the planning prompt that splits a topic into
// sections.
func ResearchManager(topic string) string {
	return render(researchManagerTemplate, "{topic}", topic)
}

const researchManagerRetryNote = `

IMPORTANT: your previous answer did not match the requested structure. Return
only the structured plan, with between 3 and 5 research questions, each with a
title and a description.`

// ResearchManagerStrict is the retry variant of ResearchManager, used after a
// plan that failed to parse.
func ResearchManagerStrict(topic string) string {
	return ResearchManager(topic) + researchManagerRetryNote
}

// ResearchSpecialist is the system prompt of the per-section researcher.
const ResearchSpecialist = `You are a Specialized Research Agent responsible for thoroughly researching a specific topic section.

Process:
1. Analyze the research question and description
2. Generate effective search queries to gather information
3. Use the web search results to find relevant information
4. Synthesize findings into a comprehensive section
5. Include proper citations to your sources

Your response should be:
- Thorough (at least 500 words)
- Well-structured with subsections
- Based on factual information (not made up)
- Include proper citations to sources

Always critically evaluate information and ensure you cover the topic comprehensively.
`

const sectionResearchTemplate = `Research the following section of a report on "{topic}".

Section title: {title}
What to research: {description}

Web search results:
{search_results}
{feedback_block}
Write the section now. At least 500 words, well-structured, with citations to the sources above.
`

const sectionFeedbackBlock = `
Reviewer feedback on the previous draft, address it in this revision:
{feedback}
`

// SectionResearch builds the user prompt for drafting one report section from
// search results. Reviewer feedback is included when revising.
func SectionResearch(topic, title, description, searchResults, feedback string) string {
	feedbackBlock := "\n"
	if feedback != "" {
		feedbackBlock = render(sectionFeedbackBlock, "{feedback}", feedback)
	}
	return render(sectionResearchTemplate,
		"{topic}", topic,
		"{title}", title,
		"{description}", description,
		"{search_results}", searchResults,
		"{feedback_block}", feedbackBlock,
	)
}

const sectionReviewTemplate = `You are a research editor reviewing one section of a report on "{topic}".

Section title: {title}
Section draft:
{content}

Judge whether the draft is thorough, well-structured, factual and cited.
Give a binary verdict 'accept' or 'revise'. If the verdict is 'revise',
provide concrete feedback on what is missing or needs to change.
`

// SectionReview builds the reviewer prompt for a drafted section.
func SectionReview(topic, title, content string) string {
	return render(sectionReviewTemplate,
		"{topic}", topic,
		"{title}", title,
		"{content}", content,
	)
}

const reportFinalizerTemplate = `You are a Report Finalizer responsible for completing a research report.

Based on the detailed analysis sections that have been researched, you need to generate:

1. Executive Summary (Brief overview of the entire report, ~150 words)
2. Key Findings (3-5 most important insights, in bullet points)
3. Limitations and Further Research (Identify gaps and suggest future areas of study)

Your content should be:
- Concise and clear
- Properly formatted
- Based strictly on the researched content

Do not introduce new information not found in the research.

Research Topic: {topic}

Detailed Analysis Sections:
{detailed_analysis}

Generate the Executive Summary, Key Findings, and Limitations sections to complete the report.
`

// ReportFinalizer builds the prompt that produces the summary, findings and
// limitations of the final report.
func ReportFinalizer(topic, detailedAnalysis string) string {
	return render(reportFinalizerTemplate,
		"{topic}", topic,
		"{detailed_analysis}", detailedAnalysis,
	)
}
