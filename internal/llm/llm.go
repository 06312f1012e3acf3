// Package llm talks to an OpenAI-compatible completion service
// (OpenRouter by default) for the three reasoning phases: search
// planning, outline synthesis from scraped evidence, and optional
// elaboration of the outline into prose.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"livesearch/internal/core"
	"livesearch/internal/logger"
)

const (
	// contextCharBudget bounds the total source text packed into the
	// outline prompt.
	contextCharBudget = 60000

	planTemperature      = 0.2
	elaborateTemperature = 0.5
)

const (
	queryPrefix   = "SEARCH_QUERY:"
	outlinePrefix = "BRIEF_INFORMATION_OUTLINE:"
	cotPrefix     = "Chain of thought:"
)

// ErrEmptyOutline is returned by Elaborate when there is nothing to
// expand on.
var ErrEmptyOutline = errors.New("no outline provided to elaborate on")

// completer is the minimal completion surface the client needs; tests
// stub it instead of the real SDK.
type completer interface {
	complete(ctx context.Context, model, system, user string, temperature float64) (string, error)
}

// Client drives the reasoning phases against a completion service.
type Client struct {
	api              completer
	model            string
	elaborationModel string

	// now supplies the current-year hint embedded in prompts.
	now func() time.Time
}

// NewClient builds a client for the given OpenAI-compatible endpoint.
// elaborationModel may be empty, in which case the primary model is
// used for elaboration too.
func NewClient(apiKey, baseURL, model, elaborationModel string) *Client {
	sdk := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return &Client{
		api:              &sdkCompleter{client: sdk},
		model:            model,
		elaborationModel: elaborationModel,
		now:              time.Now,
	}
}

// sdkCompleter adapts the openai SDK to the completer interface and
// normalizes every SDK failure into a descriptive error value.
type sdkCompleter struct {
	client openai.Client
}

func (s *sdkCompleter) complete(ctx context.Context, model, system, user string, temperature float64) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		})
	}
	if user != "" {
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		})
	}

	logger.Debug("requesting completion", "model", model, "messages", len(messages))
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    messages,
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("completion succeeded but the response carried no content")
	}
	return resp.Choices[0].Message.Content, nil
}

// PlanSearchQuery asks the model for an effective search engine query
// for the user's request. It returns the parsed query and the model's
// full chain-of-thought response. When the response lacks the marker
// line, the chain of thought is still returned alongside the error so
// callers can surface it.
func (c *Client) PlanSearchQuery(ctx context.Context, userQuery string) (string, string, error) {
	system := c.planSystemPrompt()
	response, err := c.api.complete(ctx, c.model, system, userQuery, planTemperature)
	if err != nil {
		return "", "", err
	}

	query, ok := parseSearchQuery(response)
	if !ok {
		logger.Warn("search query marker missing from planning response")
		return "", response, fmt.Errorf("%q prefix not found in planning response", queryPrefix)
	}
	logger.Info("planned search query", "query", query)
	return query, response, nil
}

// SynthesizeOutline builds a cited key-findings outline from the
// extracted articles. With no usable articles it asks the model to
// state plainly that no web evidence was found rather than answer from
// general knowledge.
func (c *Client) SynthesizeOutline(ctx context.Context, userQuery string, articles []core.Article) (string, string, error) {
	var sources []core.Article
	for _, a := range articles {
		if strings.TrimSpace(a.Text) != "" {
			sources = append(sources, a)
		}
	}

	if len(sources) == 0 {
		system := c.noEvidenceSystemPrompt(userQuery)
		response, err := c.api.complete(ctx, c.model, system, "", planTemperature)
		if err != nil {
			return "", "", err
		}
		return parseOutline(response), response, nil
	}

	system := c.outlineSystemPrompt(userQuery, sources)
	user := fmt.Sprintf(
		"Original User Query: %q\n\n"+
			"Below is web article content with metadata. Analyze it and produce a BRIEF_INFORMATION_OUTLINE "+
			"in the specified format, ensuring to use numbered citations and include a References section as instructed.\n\n%s",
		userQuery, formatSources(sources))

	response, err := c.api.complete(ctx, c.model, system, user, planTemperature)
	if err != nil {
		return "", "", err
	}

	outline := parseOutline(response)
	if outline == "" {
		logger.Warn("outline marker missing from synthesis response")
		return "", response, fmt.Errorf("%q prefix not found in synthesis response", outlinePrefix)
	}
	return outline, response, nil
}

// Elaborate expands a cited outline into structured markdown prose
// that answers the original query. It never introduces facts beyond
// the outline.
func (c *Client) Elaborate(ctx context.Context, userQuery, outline string) (string, error) {
	if strings.TrimSpace(outline) == "" {
		return "", ErrEmptyOutline
	}

	model := c.elaborationModel
	if model == "" {
		model = c.model
	}

	system := c.elaborateSystemPrompt(userQuery)
	user := fmt.Sprintf(
		"Original User Query to address: %q\n\n"+
			"Factual Brief Information Outline (with citations) to use as the basis for your answer:\n"+
			"```markdown\n%s\n```\n\n"+
			"Please elaborate on the points in the outline above to create a detailed and well-structured piece of "+
			"content that directly and comprehensively answers my original query. Use appropriate headings and ensure "+
			"all information is based strictly on the provided outline.",
		userQuery, outline)

	return c.api.complete(ctx, model, system, user, elaborateTemperature)
}

// parseSearchQuery scans the response for the first non-empty
// SEARCH_QUERY line.
func parseSearchQuery(response string) (string, bool) {
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		if !strings.HasPrefix(line, queryPrefix) {
			continue
		}
		if query := strings.TrimSpace(strings.TrimPrefix(line, queryPrefix)); query != "" {
			return query, true
		}
	}
	return "", false
}

// parseOutline returns everything after the outline marker, or ""
// when the marker is absent.
func parseOutline(response string) string {
	_, after, found := strings.Cut(response, outlinePrefix)
	if !found {
		return ""
	}
	return strings.TrimSpace(after)
}

// formatSources renders each article as a numbered evidence block,
// stopping once the character budget is spent.
func formatSources(sources []core.Article) string {
	var b strings.Builder
	spent := 0
	for i, a := range sources {
		date := "N/A"
		if a.PublishDate != nil {
			date = a.PublishDate.Format("2006-01-02")
		}
		header := fmt.Sprintf(
			"--- Source [%d] ---\nURL: %s\nTitle: %s\nPublished: %s\n"+
				"(Consider this source independently when reasoning. Treat each article as a separate evidence chunk.)\nContent:\n",
			i+1, a.URL, a.Title, date)

		available := contextCharBudget - spent - len(header) - 20
		if available <= 50 {
			logger.Warn("source context budget exhausted", "included", i, "total", len(sources))
			break
		}
		body := a.Text
		if len(body) > available {
			body = body[:available]
		}
		b.WriteString(header)
		b.WriteString(body)
		fmt.Fprintf(&b, "\n--- End of Source [%d] ---\n\n", i+1)
		spent += len(header) + len(body) + 20
	}
	return b.String()
}

// referenceList renders the source number to URL mapping included in
// the outline prompt.
func referenceList(sources []core.Article) string {
	lines := make([]string, len(sources))
	for i, a := range sources {
		lines[i] = fmt.Sprintf("[%d] %s", i+1, a.URL)
	}
	return strings.Join(lines, "\n")
}

func (c *Client) planSystemPrompt() string {
	year := c.now().Year()
	return fmt.Sprintf(
		"You are a search query generation assistant. The current year is %d. "+
			"Your task is to meticulously think step-by-step, like a detective, to generate the best possible search engine query for the user's request. "+
			"You MUST provide your response in a specific structure.\n\n"+
			"First, as a deep thinking AI, show your detailed internal monologue and deliberations. You may use extremely long chains of thought "+
			"to deeply consider the problem and deliberate with yourself via systematic reasoning processes to help come to a correct solution. "+
			"This is your free-form thinking space.\n\n"+
			"After your internal monologue, you MUST then present your structured response in EXACTLY two parts, with NO other text whatsoever between or after these parts:\n\n"+
			"PART 1: DETAILED CHAIN OF THOUGHT\n"+
			"Prefix this part with '"+cotPrefix+"'.\n"+
			"In this section, formally elaborate on your reasoning process. Your steps should include:\n"+
			"  a. Initial understanding: What is the user's core information need?\n"+
			"  b. Keyword identification: What are the most crucial keywords and concepts? Are there synonyms, related terms, or domain-specific jargon to consider?\n"+
			"  c. Timeframe considerations: Does the query mention specific years or imply a need for recent information ('latest', 'current')? "+
			"These timeframes MUST be preserved AS IS in the final search query.\n"+
			"  d. Query construction (Tree of Thought): Generate at least 3 distinct search query options. For each option, explain the rationale, "+
			"score it on Precision, Recall, and Recency using a 1-10 scale, and discuss the pros and cons. "+
			"Then reason about which query is optimal, prune the weaker candidates, and explain the final selection.\n"+
			"  e. Final keyword selection: What exact keyword phrase will form the final search query?\n\n"+
			"PART 2: SEARCH QUERY\n"+
			"Prefix this part with '"+queryPrefix+"'.\n"+
			"This line must contain ONLY the final, concise, and effective search engine query derived from your chain of thought above. "+
			"Do NOT add any text, explanation, markdown, or disclaimers after the "+queryPrefix+" line. "+
			"Your response must end immediately after the search query itself.\n\n"+
			"--- STRICT FORMAT EXAMPLE (User query: 'latest AI news %d') ---\n"+
			"INTERNAL MONOLOGUE / DELIBERATIONS:\n"+
			"The user wants the most recent news about Artificial Intelligence for the year %d. Keywords: AI, news, %d, latest. "+
			"Option 1: 'latest AI news %d' - direct and good. Option 2: 'AI %d developments' - broader, might miss news. Option 1 seems best.\n\n"+
			cotPrefix+"\n"+
			"a. Initial understanding: The user wants the most recent news about Artificial Intelligence specifically for the year %d.\n"+
			"b. Keyword identification: 'AI', 'news', '%d'. 'Latest' implies recency.\n"+
			"c. Timeframe considerations: The year '%d' is explicitly mentioned and must be used.\n"+
			"d. Query construction:\n"+
			"   Option 1: 'latest AI news %d' - Precision 9/10, Recall 9/10, Recency 9/10\n"+
			"   Option 2: 'AI breakthroughs %d' - Precision 8/10, Recall 7/10, Recency 8/10\n"+
			"   Option 3: 'AI technology updates %d' - Precision 7/10, Recall 8/10, Recency 7/10\n"+
			"   Final evaluation: Option 1 is the most balanced and directly aligned with the user's need for current news.\n"+
			"e. Final keyword selection: latest AI news %d\n"+
			queryPrefix+" latest AI news %d\n"+
			"--- END OF EXAMPLE ---",
		year, year, year, year, year, year, year, year, year, year, year, year, year, year)
}

func (c *Client) noEvidenceSystemPrompt(userQuery string) string {
	return fmt.Sprintf(
		"You are an expert information analyst. The current year is %d. "+
			"You were asked to provide an outline for the query: %q. "+
			"However, no meaningful web content (articles with text) was provided after attempting a web search. "+
			"Your task is to state that you could not find specific web articles to create an outline and therefore "+
			"cannot provide a web-based response. Do not use your general knowledge. "+
			"Your entire response should be ONLY this statement, prefixed with '"+outlinePrefix+"'.",
		c.now().Year(), userQuery)
}

func (c *Client) outlineSystemPrompt(userQuery string, sources []core.Article) string {
	return fmt.Sprintf(
		"You are a highly advanced AI news and research analyst. Your task is to create a 'Brief Information Outline' "+
			"or 'Key Findings Digest' from provided web content. The current year is %d. You are given:\n"+
			"- A user query: %q\n"+
			"- Web articles scraped from multiple sources. Each article is presented as 'Source [number]' and includes its URL, Title, Publish Date, and Content.\n"+
			"For your reference, here is the mapping of source numbers to their full URLs that you will use for citations:\n"+
			"REFERENCE_LIST_START\n%s\nREFERENCE_LIST_END\n\n"+
			"Your job is to perform multi-step reasoning over the content to produce this outline. "+
			"Use advanced reasoning to identify the most salient facts and present them clearly.\n\n"+
			"CRITICAL: Do not add any information not explicitly mentioned in the provided sources. Do not hallucinate. Be evidence-driven.\n\n"+
			"IMPORTANT: Even if an article lacks a publish date or contains general information, you must still extract and include "+
			"any potentially relevant news, events, or updates useful for the user's query. Prioritize event-based or specific snippets "+
			"over generic descriptions, but do not discard articles solely due to missing dates. If recent news is scarce, include all "+
			"possible relevant facts from the available articles.\n\n"+
			"You MUST provide your response in a specific structure.\n\n"+
			"First, show your detailed internal monologue and deliberations. This is your free-form thinking space before the structured parts.\n\n"+
			"After your internal monologue, you MUST present your structured response in EXACTLY two parts, with NO other text between or after them:\n\n"+
			"PART 1: Chain of thought:\n"+
			"Prefix this part with '"+cotPrefix+"'.\n"+
			"- For each source, reason through its relevance to the query, its timeliness (using its Published date and content cues, "+
			"but do not discard if missing), its credibility, and the key facts extracted. Refer to sources by number (e.g. 'Source [1] states...').\n"+
			"- Then provide a synthesis plan explaining how you'll organize these key points into a coherent outline, "+
			"indicating which source numbers support each planned point.\n\n"+
			"PART 2: BRIEF_INFORMATION_OUTLINE:\n"+
			"Prefix this part with '"+outlinePrefix+"'.\n"+
			"- Present the key findings as a structured, grouped news digest with clear section headers for each major topic.\n"+
			"- Under each header, use concise bullet points for distinct news items or facts.\n"+
			"- After each bullet point, cite the source(s) using their number(s) in square brackets, like [1] or [1, 2].\n"+
			"- If multiple articles cover the same event, group them under one section and cite all relevant sources.\n"+
			"- Prioritize recency and importance. If information is conflicting, note it briefly.\n"+
			"- Include ALL distinct newsworthy events, facts, or updates found in the sources, even if only mentioned in a single article.\n"+
			"- If no sources are relevant or timely, state that clearly in the outline.\n"+
			"- AFTER the grouped outline, create a 'References:' section listing each cited source number followed by its full URL "+
			"(taken from the REFERENCE_LIST_START/END block above).\n"+
			"Ensure NO text appears after the References section.",
		c.now().Year(), userQuery, referenceList(sources))
}

func (c *Client) elaborateSystemPrompt(userQuery string) string {
	return fmt.Sprintf(
		"You are an expert content writer and AI research analyst. Your primary task is to take a factual 'Brief Information Outline' "+
			"(which includes source citations) and the original user query, then expand this outline into a well-structured, detailed, "+
			"and coherent piece of content that directly and comprehensively answers the original user query. The current year is %d.\n\n"+
			"Here's what you need to do:\n"+
			"1. Understand the goal: the original user query was %q. Your elaborated content MUST serve as a direct answer to it.\n"+
			"2. Source of truth: the outline is your primary source of facts. You MUST NOT introduce new factual claims or data points "+
			"not supported by the outline. Your role is to elaborate, explain, connect, and structure the existing information.\n"+
			"3. Elaborate on outline points: expand each bullet point with context, explanation, or detail, "+
			"always staying true to the information presented and its cited source.\n"+
			"4. Structure for clarity: organize the content logically with Markdown headings that address different facets of the query.\n"+
			"5. Integrate and answer: weave the elaborated points into a narrative that directly and thoroughly answers the original query.\n"+
			"6. Maintain citations implicitly: the outline already contains citations; the elaborated content should clearly flow from the cited points.\n"+
			"7. Coherent narrative and flow: ensure smooth transitions between points and sections.\n"+
			"8. Professional tone.\n"+
			"9. Output format: well-formatted Markdown.\n\n"+
			"DO NOT simply repeat the outline. Transform the factual outline points into a comprehensive, well-explained answer "+
			"to the user's original query, using only the information provided in the outline.",
		c.now().Year(), userQuery)
}
