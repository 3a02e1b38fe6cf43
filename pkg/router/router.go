// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package router is the conversational front door: it answers small talk
// and history recalls directly, and hands real data questions to the
// analysis pipeline. Canned paths are deterministic; only the ambiguous
// middle ground consults the LLM.
package router

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/teradata-labs/argonaut/pkg/orchestration"
	"github.com/teradata-labs/argonaut/pkg/types"
)

// Query categories surfaced in response metadata.
const (
	CategoryConversational = "conversational"
	CategoryOceanographic  = "oceanographic"
)

const (
	// previousQuestionEcho caps how much of a recalled turn is quoted back.
	previousQuestionEcho = 200

	gateSystemPrompt = `You classify queries sent to an oceanographic data assistant. Reply with exactly one word: "conversational" for greetings, small talk, and questions about the assistant itself, or "oceanographic" for anything about ocean data, Argo floats, measurements, regions, or analysis.`

	smalltalkSystemPrompt = `You are Argonaut, a friendly oceanographic data analysis assistant. Handle the conversation naturally without accessing any databases, and steer the user toward questions about Argo float data, ocean measurements, and marine conditions.`

	fallbackReply = "I'm Argonaut, your oceanographic data analysis assistant. I can help you analyze Argo float data, ocean measurements, and provide insights about marine conditions. Could you please specify what ocean data or measurements you'd like to explore?"
)

// Pipeline runs the full analysis for oceanographic queries.
type Pipeline interface {
	Execute(ctx context.Context, query string, progress orchestration.ProgressFunc) (*orchestration.Answer, error)
}

// Request is one routed turn. History is the conversation before this
// turn, oldest first; ContextSummary is the session's extracted context
// line, empty on fresh sessions.
type Request struct {
	Query          string
	History        []types.Message
	ContextSummary string
	Progress       orchestration.ProgressFunc
}

// Result is the routed outcome. Pipeline fields are zero on
// conversational turns.
type Result struct {
	Response        string
	Category        string
	AgentsUsed      []string
	CyclesCompleted int
	QualityScore    float64
}

// Router classifies and dispatches queries.
type Router struct {
	llm      types.LLMProvider
	pipeline Pipeline
	counter  *TokenCounter
	logger   *zap.Logger
}

// New builds a router. llm may be nil; classification then falls back to
// the keyword heuristic and conversational turns get static replies.
func New(llm types.LLMProvider, pipeline Pipeline, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		llm:      llm,
		pipeline: pipeline,
		counter:  NewTokenCounter(),
		logger:   logger,
	}
}

var floatIDSignal = regexp.MustCompile(`\b\d{7}\b`)

// oceanTerms are the domain words counted by the keyword heuristic.
// Matching is word-bounded so "temperature" does not also count as "temp".
var oceanTerms = compileTerms([]string{
	"temperature", "temp", "salinity", "salt", "pressure", "depth",
	"float", "argo", "ocean", "sea", "marine", "measurement", "data",
	"analysis", "trend", "pattern", "arabian sea", "bay of bengal",
	"indian ocean", "latitude", "longitude", "cycle", "profile",
})

// strongTerms route to the pipeline on a single occurrence.
var strongTerms = compileTerms([]string{"float", "argo", "measurement", "data", "analysis"})

func compileTerms(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`\b` + strings.ReplaceAll(w, " ", `\s+`) + `\b`)
	}
	return out
}

var previousQuestionPatterns = []string{
	"what was my previous question",
	"what did i ask before",
	"what was my last query",
	"previous question",
	"last question",
}

type cannedReply struct {
	pattern *regexp.Regexp
	reply   string
}

// cannedReplies answer fixed conversational patterns without the LLM.
// Greetings anchor at the start of the query; "help" must stand alone so
// "help me analyze float data" still reaches the pipeline.
var cannedReplies = []cannedReply{
	{regexp.MustCompile(`^(hello|greetings|good (morning|afternoon|evening))\b`),
		"Hello! I'm Argonaut, your oceanographic data analysis assistant. I can help you analyze Argo float data, ocean measurements, and provide insights about marine conditions. What would you like to explore?"},
	{regexp.MustCompile(`^(hi|hey)\b`),
		"Hi there! I'm here to help with oceanographic data analysis. What ocean data would you like to explore?"},
	{regexp.MustCompile(`\b(thank you|thanks|thx)\b`),
		"You're welcome! Feel free to ask me anything about oceanographic data or Argo float measurements."},
	{regexp.MustCompile(`\b(goodbye|bye|see you)\b`),
		"Goodbye! Feel free to return anytime you need oceanographic data analysis."},
	{regexp.MustCompile(`\bhow are you\b`),
		"I'm doing great and ready to help with oceanographic analysis! What data would you like to explore?"},
	{regexp.MustCompile(`\bwhat can you do\b`),
		"I can analyze oceanographic data from Argo floats including temperature, salinity, and pressure measurements. I can provide insights about ocean conditions, trends, and patterns across different regions and time periods. Try asking about specific floats, regions, or oceanographic parameters!"},
	{regexp.MustCompile(`^help[.!?\s]*$`),
		"I'm here to help with oceanographic data analysis! You can ask me about:\n- Specific Argo float data (e.g., 'Show me data for float 1901442')\n- Ocean conditions in regions (e.g., 'Temperature in Arabian Sea')\n- Trends and patterns in oceanographic measurements\n- Comparisons between different regions or time periods\n\nWhat would you like to explore?"},
	{regexp.MustCompile(`\b(who are you|what is your name)\b`),
		"I'm Argonaut, an AI assistant specialized in oceanographic data analysis. I work with Argo float data to provide insights about ocean conditions, temperature, salinity, and pressure measurements."},
}

var definitionLeadIn = regexp.MustCompile(`^(what is|what's|what does|define|explain)\b`)

// definitions keyed in check order; an entry answers only single-term asks.
var definitions = []struct {
	term  *regexp.Regexp
	reply string
}{
	{regexp.MustCompile(`\btemperature\b`),
		"**Ocean Temperature**: Measured in degrees Celsius (°C), ocean temperature varies with depth, season, and location. Surface waters are typically warmer than deep waters due to solar heating. Temperature affects water density and ocean circulation patterns."},
	{regexp.MustCompile(`\bsalinity\b`),
		"**Salinity**: Measures the salt content in seawater, expressed in Practical Salinity Units (PSU). Average ocean salinity is about 35 PSU. Salinity affects water density and is influenced by evaporation, precipitation, and freshwater input."},
	{regexp.MustCompile(`\bpressure\b`),
		"**Ocean Pressure**: Increases with depth, measured in decibars (dbar). Approximately 1 dbar equals 1 meter of depth. Pressure measurements help determine the exact depth of oceanographic observations."},
	{regexp.MustCompile(`\bargo\b`),
		"**Argo Program**: A global network of autonomous profiling floats that measure temperature, salinity, and pressure in the upper 2000m of the ocean. These floats drift with currents and surface periodically to transmit data."},
	{regexp.MustCompile(`\bfloat\b`),
		"**Argo Float**: An autonomous instrument that drifts with ocean currents and periodically profiles the water column, measuring temperature, salinity, and pressure as it ascends to the surface."},
}

// Route dispatches one turn. The error is non-nil only on pipeline
// failures; every conversational path degrades to a canned reply instead.
func (r *Router) Route(ctx context.Context, req Request) (*Result, error) {
	lower := strings.ToLower(strings.TrimSpace(req.Query))

	if reply, ok := previousQuestionReply(lower, req.History); ok {
		r.logger.Debug("Routed from history", zap.String("category", CategoryConversational))
		return conversational(reply), nil
	}
	if reply, ok := definitionReply(lower); ok {
		r.logger.Debug("Routed to canned definition")
		return conversational(reply), nil
	}

	// Strong domain signals skip both the canned table and the gate, so a
	// greeting stapled to a data request still runs the pipeline.
	if oceanographicSignal(lower) {
		return r.runPipeline(ctx, req)
	}

	for _, c := range cannedReplies {
		if c.pattern.MatchString(lower) {
			r.logger.Debug("Routed to canned reply")
			return conversational(c.reply), nil
		}
	}

	if r.classify(ctx, req, lower) == CategoryOceanographic {
		return r.runPipeline(ctx, req)
	}
	return conversational(r.smalltalk(ctx, req)), nil
}

func (r *Router) runPipeline(ctx context.Context, req Request) (*Result, error) {
	answer, err := r.pipeline.Execute(ctx, req.Query, req.Progress)
	if err != nil {
		return nil, err
	}
	return &Result{
		Response:        answer.Response,
		Category:        CategoryOceanographic,
		AgentsUsed:      answer.AgentsUsed,
		CyclesCompleted: answer.CyclesCompleted,
		QualityScore:    answer.QualityScore,
	}, nil
}

// classify asks the LLM for a one-word category. Unrecognized replies and
// transport errors fall back to oceanographic; without an LLM the keyword
// heuristic decides.
func (r *Router) classify(ctx context.Context, req Request, lower string) string {
	if r.llm == nil {
		return keywordClassify(lower)
	}

	system := gateSystemPrompt
	if req.ContextSummary != "" {
		system += "\n\n" + req.ContextSummary
	}
	messages := append(r.historyWindow(req.History), types.Message{Role: types.RoleUser, Content: req.Query})

	reply, err := r.llm.Complete(ctx, types.CompletionRequest{
		System:      system,
		Messages:    messages,
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		r.logger.Warn("Gate classification failed, assuming oceanographic", zap.Error(err))
		return CategoryOceanographic
	}
	if strings.Contains(strings.ToLower(reply), CategoryConversational) {
		return CategoryConversational
	}
	return CategoryOceanographic
}

// smalltalk produces the conversational reply, static when no LLM is
// available.
func (r *Router) smalltalk(ctx context.Context, req Request) string {
	if r.llm == nil {
		return fallbackReply
	}

	system := smalltalkSystemPrompt
	if req.ContextSummary != "" {
		system += "\n\n" + req.ContextSummary
	}
	messages := append(r.historyWindow(req.History), types.Message{Role: types.RoleUser, Content: req.Query})

	reply, err := r.llm.Complete(ctx, types.CompletionRequest{
		System:      system,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil || strings.TrimSpace(reply) == "" {
		r.logger.Warn("Conversational reply failed, using fallback", zap.Error(err))
		return fallbackReply
	}
	return reply
}

func conversational(reply string) *Result {
	return &Result{Response: reply, Category: CategoryConversational}
}

// previousQuestionReply answers "what did I ask before" from history.
func previousQuestionReply(lower string, history []types.Message) (string, bool) {
	matched := false
	for _, p := range previousQuestionPatterns {
		if strings.Contains(lower, p) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != types.RoleUser {
			continue
		}
		quoted := history[i].Content
		if len(quoted) > previousQuestionEcho {
			quoted = quoted[:previousQuestionEcho] + "..."
		}
		return "Your previous question was: \"" + quoted + "\"\n\nWould you like to continue with that topic or ask something new about oceanographic data?", true
	}
	return "This is the start of our conversation. You haven't asked any previous questions yet. What oceanographic data would you like to explore?", true
}

// definitionReply answers single-term "what is X" asks. Anything naming
// two or more domain terms, or a float ID, is a data question.
func definitionReply(lower string) (string, bool) {
	if !definitionLeadIn.MatchString(lower) {
		return "", false
	}
	if oceanTermCount(lower) != 1 || floatIDSignal.MatchString(lower) {
		return "", false
	}
	for _, d := range definitions {
		if d.term.MatchString(lower) {
			return d.reply, true
		}
	}
	return "", false
}

func oceanographicSignal(lower string) bool {
	if floatIDSignal.MatchString(lower) {
		return true
	}
	for _, t := range strongTerms {
		if t.MatchString(lower) {
			return true
		}
	}
	return oceanTermCount(lower) >= 2
}

func oceanTermCount(lower string) int {
	n := 0
	for _, t := range oceanTerms {
		if t.MatchString(lower) {
			n++
		}
	}
	return n
}

func keywordClassify(lower string) string {
	if oceanographicSignal(lower) {
		return CategoryOceanographic
	}
	return CategoryConversational
}
