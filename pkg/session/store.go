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

// Package session keeps per-conversation state for the gateway: ordered
// message history, accumulated oceanographic context, and user preferences.
// The store is process-local; sessions expire after an idle TTL and are
// evicted either lazily on access or by the background sweeper.
package session

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/teradata-labs/argonaut/pkg/config"
)

// Store defaults, applied when Options leaves a field zero.
const (
	DefaultTTL           = time.Hour
	DefaultMaxMessages   = 100
	DefaultSweepInterval = 5 * time.Minute
)

// Message is a single turn in a conversation.
type Message struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Session is one conversation: its messages, the context accumulated from
// them, and the caller's preferences. Values handed out by the store are
// snapshots; mutating them does not affect stored state.
type Session struct {
	ID           string         `json:"session_id"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
	Messages     []Message      `json:"messages"`
	Context      Context        `json:"context"`
	Preferences  map[string]any `json:"user_preferences"`
}

func (s *Session) snapshot() *Session {
	out := &Session{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		Messages:     copyMessages(s.Messages),
		Context:      s.Context.clone(),
		Preferences:  maps.Clone(s.Preferences),
	}
	return out
}

func copyMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	for i := range out {
		out[i].Metadata = maps.Clone(out[i].Metadata)
	}
	return out
}

// Stats summarizes the store. Totals count sessions still resident in the
// map, including expired ones the sweeper has not evicted yet; message
// counts cover active sessions only.
type Stats struct {
	TotalSessions         int     `json:"total_sessions"`
	ActiveSessions        int     `json:"active_sessions"`
	TotalMessages         int     `json:"total_messages"`
	AvgMessagesPerSession float64 `json:"avg_messages_per_session"`
	TTLSeconds            int     `json:"session_timeout_seconds"`
	MaxMessages           int     `json:"max_messages_per_session"`
}

// Options configures a Store.
type Options struct {
	// TTL expires sessions idle longer than this.
	TTL time.Duration

	// MaxMessages caps stored messages per session, oldest dropped first.
	MaxMessages int

	// SweepInterval is how often the background sweeper evicts expired
	// sessions.
	SweepInterval time.Duration

	// Vocabulary drives context extraction; nil uses the built-in one.
	Vocabulary *config.Vocabulary

	Logger *zap.Logger
}

// Store maps session IDs to sessions. One mutex guards the whole map;
// every operation holds it for the duration of the call, so appends from
// concurrent requests serialize and the per-session message bound holds.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	extractor   *contextExtractor
	ttl         time.Duration
	maxMessages int
	sweepEvery  time.Duration
	cronEngine  *cron.Cron
	logger      *zap.Logger

	now func() time.Time
}

// NewStore creates an empty session store. Call Start to run the sweeper.
func NewStore(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = DefaultMaxMessages
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Vocabulary == nil {
		opts.Vocabulary = config.DefaultVocabulary()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Store{
		sessions:    make(map[string]*Session),
		extractor:   newContextExtractor(opts.Vocabulary),
		ttl:         opts.TTL,
		maxMessages: opts.MaxMessages,
		sweepEvery:  opts.SweepInterval,
		cronEngine:  cron.New(),
		logger:      opts.Logger,
		now:         time.Now,
	}
}

// Create registers a new session and returns a snapshot of it.
func (s *Store) Create(prefs map[string]any) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
		Messages:     []Message{},
		Context:      newContext(),
		Preferences:  map[string]any{},
	}
	maps.Copy(sess.Preferences, prefs)
	s.sessions[sess.ID] = sess

	s.logger.Info("Created new session", zap.String("session_id", sess.ID))
	return sess.snapshot()
}

// Get returns a snapshot of the session, refreshing its activity time.
// Expired sessions are evicted and reported as missing.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(id)
	if sess == nil {
		return nil
	}
	sess.LastActivity = s.now()
	return sess.snapshot()
}

// Append adds a message to the session, re-extracts conversation context
// from its content, and trims history to the per-session bound. Returns
// the stored message, or false if the session is missing or expired.
func (s *Store) Append(id, role, content string, metadata map[string]any) (*Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(id)
	if sess == nil {
		return nil, false
	}

	now := s.now()
	msg := Message{
		ID:        uuid.NewString(),
		SessionID: id,
		Timestamp: now,
		Role:      role,
		Content:   content,
		Metadata:  maps.Clone(metadata),
	}
	sess.Messages = append(sess.Messages, msg)
	sess.LastActivity = now

	s.extractor.update(&sess.Context, msg)

	if len(sess.Messages) > s.maxMessages {
		trimmed := make([]Message, s.maxMessages)
		copy(trimmed, sess.Messages[len(sess.Messages)-s.maxMessages:])
		sess.Messages = trimmed
	}

	s.logger.Debug("Added message to session",
		zap.String("session_id", id),
		zap.String("role", role))

	out := msg
	return &out, true
}

// History returns the most recent messages of the session, all of them
// when limit is not positive.
func (s *Store) History(id string, limit int) ([]Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(id)
	if sess == nil {
		return nil, false
	}
	sess.LastActivity = s.now()

	msgs := sess.Messages
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[len(msgs)-limit:]
	}
	return copyMessages(msgs), true
}

// Context returns the accumulated conversation context.
func (s *Store) Context(id string) (*Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(id)
	if sess == nil {
		return nil, false
	}
	sess.LastActivity = s.now()

	ctx := sess.Context.clone()
	return &ctx, true
}

// UpdatePreferences merges the given preferences into the session.
func (s *Store) UpdatePreferences(id string, prefs map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(id)
	if sess == nil {
		return false
	}
	maps.Copy(sess.Preferences, prefs)
	sess.LastActivity = s.now()

	s.logger.Info("Updated preferences for session", zap.String("session_id", id))
	return true
}

// Delete removes the session. Returns false if it was not present.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(id)
}

func (s *Store) deleteLocked(id string) bool {
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	s.logger.Info("Deleted session", zap.String("session_id", id))
	return true
}

// CleanupExpired evicts every expired session and returns how many went.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for id, sess := range s.sessions {
		if s.expired(sess) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(s.sessions, id)
	}
	if len(expired) > 0 {
		s.logger.Info("Cleaned up expired sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Stats reports store-wide counters plus the configured bounds.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		TotalSessions: len(s.sessions),
		TTLSeconds:    int(s.ttl.Seconds()),
		MaxMessages:   s.maxMessages,
	}
	for _, sess := range s.sessions {
		if s.expired(sess) {
			continue
		}
		st.ActiveSessions++
		st.TotalMessages += len(sess.Messages)
	}
	denom := st.ActiveSessions
	if denom == 0 {
		denom = 1
	}
	st.AvgMessagesPerSession = float64(st.TotalMessages) / float64(denom)
	return st
}

// live returns the stored session, evicting it first if expired.
// Caller must hold s.mu.
func (s *Store) live(id string) *Session {
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if s.expired(sess) {
		s.deleteLocked(id)
		return nil
	}
	return sess
}

func (s *Store) expired(sess *Session) bool {
	return s.now().Sub(sess.LastActivity) > s.ttl
}
