package agents

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/graph"
	"github.com/jemygraw/deepresearch/pkg/llm"
	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/prompts"
	"github.com/jemygraw/deepresearch/pkg/report"
	"github.com/jemygraw/deepresearch/pkg/search"
)

const (
	// maxPlanSections caps how many sections a plan may carry.
	maxPlanSections = 5
	// minPlanSections is the fewest sections a first-pass plan may carry
	// before the stricter retry prompt is used.
	minPlanSections = 3
	// maxConcurrentSections bounds the per-section research goroutines.
	maxConcurrentSections = 3
	// maxEnrichedPages is how many top search hits get their page text
	// fetched for each section.
	maxEnrichedPages = 2
)

// ResearchQuestion is one planned section of the research report.
type ResearchQuestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// ResearchPlan is the fixed section plan produced before any research runs.
type ResearchPlan struct {
	Topic     string             `json:"topic"`
	Questions []ResearchQuestion `json:"questions"`
}

// SystemCompleter produces completions under a system prompt.
type SystemCompleter interface {
	CompleteWithSystem(ctx context.Context, system, user string) (string, error)
}

// PageFetcher pulls readable page text for search-result enrichment.
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

type researchState struct {
	topic    string
	plan     ResearchPlan
	sections []report.Section
	report   *report.Report
	answer   string
}

// ResearchAgent runs the multi-role pipeline: plan the report sections,
// research each one concurrently under review, then finalize the report and
// persist it. The chat reply is the report markdown.
type ResearchAgent struct {
	cfg        *config.Config
	model      SystemCompleter
	structured llm.StructuredCompleter
	reviewer   SectionReviewer
	search     Searcher
	fetcher    PageFetcher
	runner     *graph.StateRunnable[researchState]
	logger     log.Logger
}

var _ core.ChatAgent = (*ResearchAgent)(nil)

// NewResearch builds the deep-research agent.
func NewResearch(cfg *config.Config) *ResearchAgent {
	return &ResearchAgent{cfg: cfg, logger: log.Default()}
}

// SetLogger replaces the progress logger. The web UI streams a research run
// by passing a logger that forwards to the client; call before Initialize.
func (a *ResearchAgent) SetLogger(logger log.Logger) {
	a.logger = logger
}

// Initialize builds the clients, the reviewer, the search client and the
// page fetcher, then compiles the pipeline graph.
func (a *ResearchAgent) Initialize(_ context.Context) error {
	if a.model == nil {
		model, err := llm.NewChatModel(a.cfg.LLM)
		if err != nil {
			return err
		}
		a.model = model
	}
	if a.structured == nil {
		a.structured = llm.NewStructuredClient(a.cfg.LLM)
	}
	if a.reviewer == nil {
		a.reviewer = &llmSectionReviewer{structured: a.structured}
	}
	if a.search == nil {
		client, err := search.NewTavily(a.cfg.Search.TavilyAPIKey)
		if err != nil {
			return err
		}
		a.search = client
	}
	if a.fetcher == nil {
		a.fetcher = search.NewFetcher()
	}

	workflow := graph.NewStateGraph[researchState]()
	workflow.SetRetryPolicy(transientRetryPolicy())
	workflow.AddNode("plan", "Split the topic into research sections", a.planNode)
	workflow.AddNode("research", "Research and draft every section", a.researchNode)
	workflow.AddNode("publish", "Finalize the report and write it to disk", a.publishNode)
	workflow.SetEntryPoint("plan")
	workflow.AddEdge("plan", "research")
	workflow.AddEdge("research", "publish")
	workflow.AddEdge("publish", graph.END)

	runner, err := workflow.Compile()
	if err != nil {
		return err
	}
	a.runner = runner.WithTracer(newTracer(a.cfg, a.logger))
	return nil
}

func (a *ResearchAgent) planNode(ctx context.Context, s researchState) (researchState, error) {
	s.plan = a.buildPlan(ctx, s.topic)
	a.logger.Info("research plan: %d sections on %q", len(s.plan.Questions), s.plan.Topic)
	return s, nil
}

// buildPlan asks for a structured plan, retrying once with a stricter
// instruction when the first plan fails to parse or lands under
// minPlanSections. When both attempts fail the whole topic becomes one
// section.
func (a *ResearchAgent) buildPlan(ctx context.Context, topic string) ResearchPlan {
	var plan ResearchPlan
	err := a.structured.CompleteStructured(ctx, "research_plan", prompts.ResearchManager(topic), &plan)
	if err == nil && len(plan.Questions) >= minPlanSections {
		return boundPlan(topic, plan)
	}
	if err != nil {
		a.logger.Warn("research plan did not parse, retrying: %v", err)
	} else {
		a.logger.Warn("research plan came back with %d sections, retrying", len(plan.Questions))
	}

	plan = ResearchPlan{}
	err = a.structured.CompleteStructured(ctx, "research_plan", prompts.ResearchManagerStrict(topic), &plan)
	if err == nil && len(plan.Questions) > 0 {
		return boundPlan(topic, plan)
	}
	if err != nil {
		a.logger.Warn("research plan retry failed, falling back to a single section: %v", err)
	} else {
		a.logger.Warn("research plan retry came back without sections, falling back to a single section")
	}
	return fallbackPlan(topic)
}

// boundPlan caps the plan at maxPlanSections and pins the topic.
func boundPlan(topic string, plan ResearchPlan) ResearchPlan {
	plan.Topic = strings.TrimSpace(plan.Topic)
	if plan.Topic == "" {
		plan.Topic = topic
	}
	if len(plan.Questions) > maxPlanSections {
		plan.Questions = plan.Questions[:maxPlanSections]
	}
	return plan
}

// fallbackPlan covers the whole topic in a single section.
func fallbackPlan(topic string) ResearchPlan {
	return ResearchPlan{
		Topic: topic,
		Questions: []ResearchQuestion{{
			Title:       topic,
			Description: "Cover the topic comprehensively: background, current state, notable developments and open questions.",
		}},
	}
}

// researchNode drafts every planned section. Sections are data-independent,
// so they run concurrently under a bounded errgroup.
func (a *ResearchAgent) researchNode(ctx context.Context, s researchState) (researchState, error) {
	sections := make([]report.Section, len(s.plan.Questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSections)
	for i, question := range s.plan.Questions {
		g.Go(func() error {
			sections[i] = a.researchSection(gctx, s.plan.Topic, question)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s, err
	}

	s.sections = sections
	return s, nil
}

// researchSection drafts one section through the search, draft, review loop.
// Failures degrade the section instead of failing the run.
func (a *ResearchAgent) researchSection(ctx context.Context, topic string, question ResearchQuestion) report.Section {
	a.logger.Info("researching section %q", question.Title)
	section := report.Section{Title: question.Title}

	evidence, sources := a.gatherEvidence(ctx, topic, question)
	section.Sources = sources

	feedback := ""
	for attempt := 0; ; attempt++ {
		content, err := a.model.CompleteWithSystem(ctx, prompts.ResearchSpecialist,
			prompts.SectionResearch(topic, question.Title, question.Description, evidence, feedback))
		if err != nil {
			a.logger.Error("drafting section %q failed: %v", question.Title, err)
			if section.Content == "" {
				section.Content = "Research for this section could not be completed."
			}
			return section
		}
		section.Content = content

		if attempt >= a.cfg.App.MaxRevisions {
			a.logger.Info("section %q accepted after the revision budget", question.Title)
			break
		}
		verdict, err := a.reviewer.Review(ctx, topic, question.Title, content)
		if err != nil {
			a.logger.Warn("review of section %q failed, accepting the draft: %v", question.Title, err)
			break
		}
		if verdict.Accept {
			a.logger.Info("section %q accepted", question.Title)
			break
		}
		feedback = verdict.Feedback
		a.logger.Info("revising section %q: %s", question.Title, verdict.Feedback)
	}
	return section
}

// gatherEvidence searches the web for the section and enriches the top hits
// with fetched page text.
func (a *ResearchAgent) gatherEvidence(ctx context.Context, topic string, question ResearchQuestion) (string, []string) {
	query := strings.TrimSpace(topic + " " + question.Title)
	resp, err := a.search.Search(ctx, query)
	if err != nil {
		a.logger.Warn("search for section %q failed: %v", question.Title, err)
		return "No search results were available.", nil
	}
	if len(resp.Results) == 0 {
		return "No search results were available.", nil
	}

	var evidence strings.Builder
	evidence.WriteString(search.FormatResults(resp.Results))

	sources := make([]string, 0, len(resp.Results))
	for i, result := range resp.Results {
		sources = append(sources, result.URL)
		if i >= maxEnrichedPages {
			continue
		}
		text, err := a.fetcher.FetchText(ctx, result.URL)
		if err != nil {
			a.logger.Debug("could not fetch %s: %v", result.URL, err)
			continue
		}
		evidence.WriteString(fmt.Sprintf("\n\nFull text of %s:\n%s", result.URL, text))
	}
	return evidence.String(), sources
}

type finalizeResult struct {
	ExecutiveSummary string `json:"executive_summary"`
	KeyFindings      string `json:"key_findings"`
	Limitations      string `json:"limitations"`
}

// publishNode finalizes the report, persists it and makes it the reply. A
// failed write is logged but still answers with the report text.
func (a *ResearchAgent) publishNode(ctx context.Context, s researchState) (researchState, error) {
	rep := a.finalizeReport(ctx, s.plan.Topic, s.sections)
	s.report = rep
	s.answer = rep.Markdown()

	if err := rep.Save(a.cfg.App.ReportPath); err != nil {
		a.logger.Error("could not persist the report: %v", err)
	} else {
		a.logger.Info("report written to %s", a.cfg.App.ReportPath)
	}
	return s, nil
}

// finalizeReport asks for the framing sections, with one retry and a
// deterministic fallback so publishing never fails the run.
func (a *ResearchAgent) finalizeReport(ctx context.Context, topic string, sections []report.Section) *report.Report {
	detailed := renderSectionsForPrompt(sections)

	var out finalizeResult
	err := a.structured.CompleteStructured(ctx, "report_finalizer", prompts.ReportFinalizer(topic, detailed), &out)
	if err != nil {
		a.logger.Warn("report finalizer did not parse, retrying: %v", err)
		err = a.structured.CompleteStructured(ctx, "report_finalizer", prompts.ReportFinalizer(topic, detailed), &out)
	}
	if err != nil {
		a.logger.Error("report finalizer failed twice, using fallback framing: %v", err)
		out = fallbackFraming(topic, sections)
	}

	return &report.Report{
		Topic:            topic,
		ExecutiveSummary: out.ExecutiveSummary,
		KeyFindings:      out.KeyFindings,
		DetailedAnalysis: sections,
		Limitations:      out.Limitations,
	}
}

// renderSectionsForPrompt flattens the drafted sections for the finalizer
// prompt.
func renderSectionsForPrompt(sections []report.Section) string {
	var b strings.Builder
	for _, section := range sections {
		b.WriteString(fmt.Sprintf("Section: %s\n%s\n\n", section.Title, section.Content))
	}
	return strings.TrimSpace(b.String())
}

// fallbackFraming frames the report from the section titles alone.
func fallbackFraming(topic string, sections []report.Section) finalizeResult {
	titles := make([]string, 0, len(sections))
	for _, section := range sections {
		titles = append(titles, "- "+section.Title)
	}
	return finalizeResult{
		ExecutiveSummary: fmt.Sprintf("This report collects research on %s across %d sections.", topic, len(sections)),
		KeyFindings:      strings.Join(titles, "\n"),
		Limitations:      "The automated summary could not be generated; findings are limited to the drafted sections.",
	}
}

// ProcessMessage treats the message as the research topic and replies with
// the finished report markdown.
func (a *ResearchAgent) ProcessMessage(ctx context.Context, message string, _ []core.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.App.TurnTimeout)
	defer cancel()

	final, err := a.runner.Invoke(ctx, researchState{topic: message})
	if err != nil {
		return "", err
	}
	return final.answer, nil
}
