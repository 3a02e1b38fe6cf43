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
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/teradata-labs/argonaut/pkg/router"
	"github.com/teradata-labs/argonaut/pkg/session"
	"github.com/teradata-labs/argonaut/pkg/types"
)

const (
	// maxChatBodyBytes bounds the request body before schema validation.
	maxChatBodyBytes = 1 << 20

	// historyLimit is how many prior turns the router sees; the router
	// trims further by token budget.
	historyLimit = 6
)

// chatRequestSchema bounds the chat payload before any session work happens.
const chatRequestSchema = `{
	"type": "object",
	"required": ["query"],
	"properties": {
		"query": {"type": "string", "minLength": 1, "maxLength": 2000},
		"session_id": {"type": "string"},
		"timeout": {"type": "integer", "minimum": 30, "maximum": 600},
		"context": {"type": "object"},
		"user_preferences": {"type": "object"}
	}
}`

type chatRequest struct {
	Query       string         `json:"query"`
	SessionID   string         `json:"session_id"`
	Timeout     int            `json:"timeout"`
	Context     map[string]any `json:"context"`
	Preferences map[string]any `json:"user_preferences"`
}

// parseChatRequest validates the body against the chat schema and applies
// the configured default timeout.
func (s *Server) parseChatRequest(w http.ResponseWriter, r *http.Request) (*chatRequest, *types.Error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err != nil {
		return nil, types.Errorf(types.KindInvalidInput, "Request body unreadable: %v", err)
	}

	result, err := s.chatSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, types.NewError(types.KindInvalidInput, "Invalid request data")
	}
	if !result.Valid() {
		violations := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			violations[i] = desc.String()
		}
		return nil, types.NewError(types.KindInvalidInput, "Invalid request data").
			WithDetail("violations", violations)
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, types.Errorf(types.KindInvalidInput, "Invalid request data: %v", err)
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, types.NewError(types.KindInvalidInput, "Query cannot be empty")
	}
	if req.Timeout == 0 {
		req.Timeout = s.cfg.RequestTimeoutSeconds
	}
	return &req, nil
}

// handleChat runs one conversational turn: resolve the session, route the
// query, persist both sides of the exchange, and echo the conversation
// context back to the caller.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, verr := s.parseChatRequest(w, r)
	if verr != nil {
		s.writeError(w, verr)
		return
	}

	sess, serr := s.resolveSession(req)
	if serr != nil {
		s.writeError(w, serr)
		return
	}

	// Context from turns before this one; the user message is appended
	// after so a first query reports has_context=false.
	history, _ := s.sessions.History(sess.ID, historyLimit)
	hasContext := len(history) > 0
	summary := s.sessions.ContextSummary(sess.ID)

	s.sessions.Append(sess.ID, types.RoleUser, req.Query, map[string]any{
		"timestamp": start.UTC().Format(time.RFC3339),
	})

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(req.Timeout)*time.Second)
	defer cancel()

	result, err := s.router.Route(ctx, router.Request{
		Query:          req.Query,
		History:        routerHistory(history),
		ContextSummary: summary,
	})
	elapsed := time.Since(start)
	if err != nil {
		s.failChat(w, sess.ID, err)
		return
	}

	s.metrics.ObserveQuery(result.Category, elapsed)
	if result.Category == router.CategoryOceanographic {
		s.metrics.ObservePipeline(result.CyclesCompleted, result.QualityScore)
	}

	metadata := s.chatMetadata(start, elapsed, sess.ID, hasContext, result)
	s.sessions.Append(sess.ID, types.RoleAssistant, result.Response, metadata)

	s.logger.Info("Chat turn completed",
		zap.String("session_id", sess.ID),
		zap.String("category", result.Category),
		zap.Int("cycles", result.CyclesCompleted),
		zap.Duration("elapsed", elapsed))

	writeJSON(w, http.StatusOK, map[string]any{
		"response":             result.Response,
		"session_id":           sess.ID,
		"metadata":             metadata,
		"status":               "success",
		"timestamp":            nowStamp(),
		"conversation_context": s.conversationContext(sess.ID),
	})
}

// failChat maps a routing failure onto the error envelope. The user turn
// stays in the session; no assistant turn is recorded for a failed query.
func (s *Server) failChat(w http.ResponseWriter, sessionID string, err error) {
	err = reclassifyTimeout(err)
	kind := types.KindOf(err)
	s.metrics.ObserveError(string(kind))
	s.logger.Error("Chat query failed",
		zap.String("session_id", sessionID),
		zap.String("kind", string(kind)),
		zap.Error(err))
	s.writeError(w, err)
}

// reclassifyTimeout turns a request-deadline expiry into an agent timeout
// unless the pipeline already reported one.
func reclassifyTimeout(err error) error {
	if types.KindOf(err) != types.KindAgentTimeout && errors.Is(err, context.DeadlineExceeded) {
		return types.NewError(types.KindAgentTimeout,
			"Agent execution timed out. Please try a simpler query or try again later.")
	}
	return err
}

func (s *Server) resolveSession(req *chatRequest) (*session.Session, *types.Error) {
	if req.SessionID == "" {
		return s.sessions.Create(req.Preferences), nil
	}
	sess := s.sessions.Get(req.SessionID)
	if sess == nil {
		return nil, types.NewError(types.KindSessionNotFound,
			"Session not found or expired. Please create a new session.")
	}
	if len(req.Preferences) > 0 {
		s.sessions.UpdatePreferences(sess.ID, req.Preferences)
	}
	return sess, nil
}

func routerHistory(messages []session.Message) []types.Message {
	if len(messages) == 0 {
		return nil
	}
	out := make([]types.Message, len(messages))
	for i, m := range messages {
		out[i] = types.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func (s *Server) chatMetadata(start time.Time, elapsed time.Duration, sessionID string, hasContext bool, result *router.Result) map[string]any {
	agents := result.AgentsUsed
	if agents == nil {
		agents = []string{}
	}
	return map[string]any{
		"query_id":          fmt.Sprintf("q_%d", start.Unix()),
		"session_id":        sessionID,
		"timestamp":         start.UTC().Format(time.RFC3339),
		"response_time":     elapsed.Seconds(),
		"agent_type":        result.Category,
		"agents_used":       agents,
		"cycles_completed":  result.CyclesCompleted,
		"quality_score":     result.QualityScore,
		"max_cycles":        s.pipeline.MaxCycles,
		"quality_threshold": s.pipeline.QualityThreshold,
		"has_context":       hasContext,
	}
}

func (s *Server) conversationContext(sessionID string) *session.Context {
	sessCtx, ok := s.sessions.Context(sessionID)
	if !ok {
		return nil
	}
	return sessCtx
}

// handleChatStream answers one query over server-sent events: an initial
// frame, a frame per pipeline stage, the completed response, then [DONE].
// Streamed turns are stateless; they do not touch the session store.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, verr := s.parseChatRequest(w, r)
	if verr != nil {
		s.writeError(w, verr)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, types.NewError(types.KindInternal, "Streaming unsupported by connection"))
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	stream := &eventStream{w: w, flusher: flusher}
	stream.send(map[string]any{
		"status":  "processing",
		"message": "Initializing multi-agent system...",
	})

	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(req.Timeout)*time.Second)
	defer cancel()

	result, err := s.router.Route(ctx, router.Request{
		Query: req.Query,
		Progress: func(stage, message string, progress float64) {
			stream.send(map[string]any{
				"status":   "processing",
				"stage":    stage,
				"message":  message,
				"progress": progress,
			})
		},
	})
	elapsed := time.Since(start)
	if err != nil {
		err = reclassifyTimeout(err)
		kind := types.KindOf(err)
		s.metrics.ObserveError(string(kind))
		s.logger.Error("Streaming chat failed", zap.String("kind", string(kind)), zap.Error(err))

		message := err.Error()
		var typed *types.Error
		if errors.As(err, &typed) {
			message = typed.Message
		}
		stream.send(map[string]any{
			"status":     "error",
			"message":    message,
			"error_type": string(kind),
		})
		return
	}

	s.metrics.ObserveQuery(result.Category, elapsed)
	if result.Category == router.CategoryOceanographic {
		s.metrics.ObservePipeline(result.CyclesCompleted, result.QualityScore)
	}

	stream.send(map[string]any{
		"response": result.Response,
		"metadata": s.chatMetadata(start, elapsed, req.SessionID, false, result),
		"status":   "completed",
	})
	stream.done()
}

// eventStream writes server-sent events one frame at a time, flushing after
// each so progress reaches the client while agents are still running.
type eventStream struct {
	w       io.Writer
	flusher http.Flusher
}

func (es *eventStream) send(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(es.w, "data: %s\n\n", data)
	es.flusher.Flush()
}

func (es *eventStream) done() {
	fmt.Fprint(es.w, "data: [DONE]\n\n")
	es.flusher.Flush()
}

// handleChatExamples serves curated example queries so API consumers can
// discover what the system answers well.
func (s *Server) handleChatExamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"examples": map[string]any{
			"measurement_queries": []map[string]any{
				{
					"query":           "Show me temperature measurements from float 7902073",
					"description":     "Retrieve and analyze temperature data from a specific Argo float",
					"expected_agents": []string{"measurement"},
				},
				{
					"query":           "What are the salinity patterns in the Arabian Sea during monsoon season?",
					"description":     "Analyze regional salinity data with seasonal context",
					"expected_agents": []string{"measurement", "metadata"},
				},
			},
			"metadata_queries": []map[string]any{
				{
					"query":           "What instruments and parameters are available on float 7902073?",
					"description":     "Get detailed metadata about float capabilities and deployment",
					"expected_agents": []string{"metadata"},
				},
				{
					"query":           "How many active floats are in the Bay of Bengal?",
					"description":     "Regional coverage and float distribution analysis",
					"expected_agents": []string{"metadata"},
				},
			},
			"semantic_queries": []map[string]any{
				{
					"query":           "Find profiles showing strong temperature inversions in the Bay of Bengal",
					"description":     "Pattern-based search for specific oceanographic phenomena",
					"expected_agents": []string{"semantic", "measurement"},
				},
				{
					"query":           "Compare unusual patterns between Arabian Sea and Bay of Bengal",
					"description":     "Cross-regional comparative analysis using semantic search",
					"expected_agents": []string{"semantic", "measurement", "metadata"},
				},
			},
			"complex_queries": []map[string]any{
				{
					"query":           "Analyze float 7902073: show measurements, metadata, and find similar patterns in the Arabian Sea",
					"description":     "Comprehensive multi-agent analysis combining all data sources",
					"expected_agents": []string{"measurement", "metadata", "semantic"},
				},
			},
		},
		"tips": []string{
			"Be specific about float IDs (e.g., 'float 7902073')",
			"Mention regions by name (e.g., 'Arabian Sea', 'Bay of Bengal')",
			"Include parameters of interest (e.g., 'temperature', 'salinity')",
			"Ask for comparisons to trigger semantic search",
			"Complex queries will automatically use multiple cycles for refinement",
		},
		"supported_regions": []string{
			"Arabian Sea",
			"Bay of Bengal",
			"Equatorial Indian Ocean",
			"Southern Indian Ocean",
		},
		"supported_parameters": []string{
			"Temperature",
			"Salinity",
			"Pressure",
			"Depth",
		},
	})
}
