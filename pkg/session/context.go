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

package session

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/teradata-labs/argonaut/pkg/config"
	"github.com/teradata-labs/argonaut/pkg/types"
)

// Bounds on the accumulated lists. Regions and parameters are bounded by
// the vocabulary itself and carry no explicit cap.
const (
	maxTrackedFloats  = 20
	maxTrackedQueries = 20
	queryEchoRunes    = 100
)

// Query classifications recorded in Context.PreviousQueries.
const (
	QueryComparative     = "comparative"
	QueryPatternAnalysis = "pattern_analysis"
	QueryMetadata        = "metadata"
	QueryMeasurement     = "measurement"
	QueryUnknown         = "unknown"
)

// Context is what the store has learned from a conversation so far. All
// lists are ordered by first mention and deduplicated.
type Context struct {
	RegionsDiscussed     []string       `json:"regions_discussed"`
	FloatsAnalyzed       []string       `json:"floats_analyzed"`
	ParametersOfInterest []string       `json:"parameters_of_interest"`
	AnalysisPreferences  map[string]any `json:"analysis_preferences"`
	PreviousQueries      []QueryRecord  `json:"previous_queries"`
}

// QueryRecord remembers the shape of one past user query.
type QueryRecord struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

func newContext() Context {
	return Context{
		RegionsDiscussed:     []string{},
		FloatsAnalyzed:       []string{},
		ParametersOfInterest: []string{},
		AnalysisPreferences:  map[string]any{},
		PreviousQueries:      []QueryRecord{},
	}
}

func (c Context) clone() Context {
	return Context{
		RegionsDiscussed:     slices.Clone(c.RegionsDiscussed),
		FloatsAnalyzed:       slices.Clone(c.FloatsAnalyzed),
		ParametersOfInterest: slices.Clone(c.ParametersOfInterest),
		AnalysisPreferences:  maps.Clone(c.AnalysisPreferences),
		PreviousQueries:      slices.Clone(c.PreviousQueries),
	}
}

var (
	floatMentionPattern  = regexp.MustCompile(`float\s+(\d+)`)
	barePlatformPattern  = regexp.MustCompile(`\b(\d{7})\b`)
	comparativePattern   = regexp.MustCompile(`\b(?:compar\w*|versus|vs)\b`)
	patternQueryPattern  = regexp.MustCompile(`\b(?:pattern\w*|similar\w*|anomal\w*|unusual)\b`)
	metadataQueryPattern = regexp.MustCompile(`\b(?:metadata|instrument\w*|deployment\w*)\b`)
	measureQueryPattern  = regexp.MustCompile(`\b(?:measurement\w*|data|temperature\w*|salinity)\b`)
)

type trackedRegion struct {
	canonical string
	pattern   *regexp.Regexp
}

type trackedParameter struct {
	label   string
	pattern *regexp.Regexp
}

// contextExtractor scans message content for the region and parameter
// vocabulary plus float IDs, and classifies user queries by shape.
type contextExtractor struct {
	regions    []trackedRegion
	parameters []trackedParameter
}

func newContextExtractor(vocab *config.Vocabulary) *contextExtractor {
	ex := &contextExtractor{}

	seen := map[string]bool{}
	track := func(canonical, phrase string) {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase == "" || seen[phrase] {
			return
		}
		seen[phrase] = true
		ex.regions = append(ex.regions, trackedRegion{canonical: canonical, pattern: phrasePattern(phrase)})
	}
	for _, r := range vocab.Regions {
		canonical := strings.ToLower(r.Name)
		track(canonical, r.Name)
		for _, alias := range r.Aliases {
			track(canonical, alias)
		}
	}
	// The basin itself is worth remembering even though no single
	// vocabulary region claims it.
	track("indian ocean", "indian ocean")

	for _, p := range vocab.Parameters {
		label := strings.ToLower(p.Label)
		if label == "" {
			label = strings.ToLower(p.Name)
		}
		words := append([]string{p.Name, p.Label}, p.Aliases...)
		ex.parameters = append(ex.parameters, trackedParameter{label: label, pattern: wordsPattern(words)})
	}
	return ex
}

// update folds one appended message into the session context.
func (ex *contextExtractor) update(c *Context, msg Message) {
	lower := strings.ToLower(msg.Content)

	for _, r := range ex.regions {
		if r.pattern.MatchString(lower) {
			c.RegionsDiscussed = appendUnique(c.RegionsDiscussed, r.canonical, 0)
		}
	}

	for _, m := range floatMentionPattern.FindAllStringSubmatch(lower, -1) {
		c.FloatsAnalyzed = appendUnique(c.FloatsAnalyzed, m[1], maxTrackedFloats)
	}
	for _, m := range barePlatformPattern.FindAllStringSubmatch(lower, -1) {
		c.FloatsAnalyzed = appendUnique(c.FloatsAnalyzed, m[1], maxTrackedFloats)
	}

	for _, p := range ex.parameters {
		if p.pattern.MatchString(lower) {
			c.ParametersOfInterest = appendUnique(c.ParametersOfInterest, p.label, 0)
		}
	}

	if msg.Role != types.RoleUser {
		return
	}
	c.PreviousQueries = append(c.PreviousQueries, QueryRecord{
		Type:      classifyQuery(lower),
		Timestamp: msg.Timestamp,
		Content:   clipRunes(msg.Content, queryEchoRunes),
	})
	if len(c.PreviousQueries) > maxTrackedQueries {
		c.PreviousQueries = slices.Clone(c.PreviousQueries[len(c.PreviousQueries)-maxTrackedQueries:])
	}
}

// classifyQuery buckets a lowercased user query. First match wins;
// comparative questions outrank the parameter words they usually contain.
func classifyQuery(lower string) string {
	switch {
	case comparativePattern.MatchString(lower):
		return QueryComparative
	case patternQueryPattern.MatchString(lower):
		return QueryPatternAnalysis
	case metadataQueryPattern.MatchString(lower):
		return QueryMetadata
	case measureQueryPattern.MatchString(lower):
		return QueryMeasurement
	default:
		return QueryUnknown
	}
}

// ContextSummary renders the session context as one line suitable for
// prompt injection. Empty until the conversation has given the store
// something to remember.
func (s *Store) ContextSummary(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(id)
	if sess == nil {
		return ""
	}
	sess.LastActivity = s.now()
	return summarize(sess)
}

func summarize(sess *Session) string {
	c := &sess.Context
	var parts []string

	if len(c.RegionsDiscussed) > 0 {
		parts = append(parts, "Regions discussed: "+strings.Join(c.RegionsDiscussed, ", "))
	}
	if len(c.FloatsAnalyzed) > 0 {
		parts = append(parts, "Floats analyzed: "+strings.Join(c.FloatsAnalyzed, ", "))
	}
	if len(c.ParametersOfInterest) > 0 {
		parts = append(parts, "Parameters of interest: "+strings.Join(c.ParametersOfInterest, ", "))
	}

	recent := c.PreviousQueries
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	if len(recent) > 0 {
		kinds := make([]string, len(recent))
		for i, q := range recent {
			kinds[i] = q.Type
		}
		parts = append(parts, "Recent query types: "+strings.Join(kinds, ", "))
	}

	if len(sess.Preferences) > 0 {
		keys := slices.Sorted(maps.Keys(sess.Preferences))
		prefs := make([]string, 0, len(keys))
		for _, k := range keys {
			prefs = append(prefs, fmt.Sprintf("%s: %v", k, sess.Preferences[k]))
		}
		parts = append(parts, "User preferences: "+strings.Join(prefs, "; "))
	}

	if len(parts) == 0 {
		return ""
	}
	return "Previous conversation context: " + strings.Join(parts, " | ")
}

func appendUnique(list []string, v string, limit int) []string {
	if slices.Contains(list, v) {
		return list
	}
	list = append(list, v)
	if limit > 0 && len(list) > limit {
		list = slices.Clone(list[len(list)-limit:])
	}
	return list
}

func clipRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// phrasePattern compiles a word-bounded pattern for a vocabulary phrase,
// tolerating any whitespace between its words.
func phrasePattern(phrase string) *regexp.Regexp {
	quoted := strings.ReplaceAll(regexp.QuoteMeta(phrase), ` `, `\s+`)
	return regexp.MustCompile(`\b` + quoted + `\b`)
}

// wordsPattern compiles a word-bounded alternation over a parameter's
// column name, label, and aliases.
func wordsPattern(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	seen := map[string]bool{}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, `|`) + `)\b`)
}
