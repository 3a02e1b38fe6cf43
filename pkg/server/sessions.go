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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/teradata-labs/argonaut/pkg/types"
)

// defaultSessionHistoryLimit applies when the history query has no limit.
const defaultSessionHistoryLimit = 50

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preferences map[string]any `json:"user_preferences"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, types.Errorf(types.KindInvalidInput, "Invalid request data: %v", err))
		return
	}

	sess := s.sessions.Create(req.Preferences)
	s.logger.Info("Session created via API", zap.String("session_id", sess.ID))
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
		"status":     "active",
	})
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(r.PathValue("id"))
	if sess == nil {
		s.writeError(w, types.NewError(types.KindSessionNotFound, "Session not found or expired"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":       sess.ID,
		"created_at":       sess.CreatedAt,
		"last_activity":    sess.LastActivity,
		"message_count":    len(sess.Messages),
		"context":          sess.Context,
		"user_preferences": sess.Preferences,
		"status":           "active",
	})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			s.writeError(w, types.NewError(types.KindInvalidInput, "limit must be an integer between 1 and 100"))
			return
		}
		limit = parsed
	}

	id := r.PathValue("id")
	sess := s.sessions.Get(id)
	if sess == nil {
		s.writeError(w, types.NewError(types.KindSessionNotFound, "Session not found or expired"))
		return
	}

	messages, _ := s.sessions.History(id, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":     id,
		"messages":       messages,
		"context":        sess.Context,
		"total_messages": len(sess.Messages),
	})
}

func (s *Server) handleSessionContext(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sessCtx, ok := s.sessions.Context(id)
	if !ok {
		s.writeError(w, types.NewError(types.KindSessionNotFound, "Session not found or expired"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"context":    sessCtx,
		"timestamp":  nowStamp(),
	})
}

func (s *Server) handleSessionPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&prefs); err != nil {
		s.writeError(w, types.Errorf(types.KindInvalidInput, "Invalid request data: %v", err))
		return
	}

	id := r.PathValue("id")
	if !s.sessions.UpdatePreferences(id, prefs) {
		s.writeError(w, types.NewError(types.KindSessionNotFound, "Session not found or expired"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "success",
		"message":             "User preferences updated",
		"session_id":          id,
		"updated_preferences": prefs,
	})
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.sessions.Delete(id) {
		s.writeError(w, types.NewError(types.KindSessionNotFound, "Session not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"message":    "Session deleted successfully",
		"session_id": id,
	})
}

func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"timestamp":  nowStamp(),
		"statistics": s.sessions.Stats(),
		"status":     "operational",
	})
}
