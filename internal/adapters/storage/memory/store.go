// Package memory holds in-memory implementations of the store ports.
// NOT persistent; suitable for local mode and tests only.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kokoron/kokoron-backend/internal/domain"
)

// Store implements every document-store port in process memory.
type Store struct {
	mu sync.RWMutex

	diaryLogs   map[domain.UserID]map[domain.LogID]*domain.DiaryLog
	analysis    map[domain.UserID]*domain.AnalysisMessageSet
	mentalHints map[domain.UserID]*domain.MentalHintSet
	medications map[domain.UserID][]*domain.Medication
	supporters  map[domain.UserID][]*domain.SupporterLink
	users       map[domain.UserID]*domain.User
	insights    map[domain.UserID][]*domain.PersonalInsight
	selfCare    map[domain.UserID][]*domain.SelfCareSuggestion
}

func NewStore() *Store {
	return &Store{
		diaryLogs:   make(map[domain.UserID]map[domain.LogID]*domain.DiaryLog),
		analysis:    make(map[domain.UserID]*domain.AnalysisMessageSet),
		mentalHints: make(map[domain.UserID]*domain.MentalHintSet),
		medications: make(map[domain.UserID][]*domain.Medication),
		supporters:  make(map[domain.UserID][]*domain.SupporterLink),
		users:       make(map[domain.UserID]*domain.User),
		insights:    make(map[domain.UserID][]*domain.PersonalInsight),
		selfCare:    make(map[domain.UserID][]*domain.SelfCareSuggestion),
	}
}

// ─────────────────────────────────────────
// DiaryLogStore
// ─────────────────────────────────────────

func (s *Store) CreateDiaryLog(_ context.Context, log *domain.DiaryLog) (domain.LogID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.ID == "" {
		log.ID = domain.LogID(uuid.NewString())
	}
	if s.diaryLogs[log.UserID] == nil {
		s.diaryLogs[log.UserID] = make(map[domain.LogID]*domain.DiaryLog)
	}
	cp := *log
	s.diaryLogs[log.UserID][log.ID] = &cp
	return log.ID, nil
}

func (s *Store) GetDiaryLog(_ context.Context, userID domain.UserID, logID domain.LogID) (*domain.DiaryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.diaryLogs[userID][logID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *log
	return &cp, nil
}

func (s *Store) ListDiaryLogsSince(_ context.Context, userID domain.UserID, since time.Time) ([]*domain.DiaryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.DiaryLog
	for _, log := range s.diaryLogs[userID] {
		if !log.Timestamp.Before(since) {
			cp := *log
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) ListRecentDiaryLogs(_ context.Context, userID domain.UserID, limit int) ([]*domain.DiaryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.DiaryLog
	for _, log := range s.diaryLogs[userID] {
		cp := *log
		out = append(out, &cp)
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) AnnotateDiaryLog(_ context.Context, userID domain.UserID, logID domain.LogID, upd domain.AnnotationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.diaryLogs[userID][logID]
	if !ok {
		return domain.ErrNotFound
	}
	if upd.AIComment != nil {
		log.AIComment = *upd.AIComment
	}
	if upd.OverallMoodScore != nil {
		log.OverallMoodScore = *upd.OverallMoodScore
	}
	if upd.AIAnalyzedPositivityScore != nil {
		log.AIAnalyzedPositivityScore = upd.AIAnalyzedPositivityScore
	}
	return nil
}

func sortNewestFirst(logs []*domain.DiaryLog) {
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
}

// ─────────────────────────────────────────
// AnalysisMessageStore
// ─────────────────────────────────────────

func (s *Store) MarkUpdating(_ context.Context, userID domain.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.analysis[userID]
	if set == nil {
		set = &domain.AnalysisMessageSet{}
		s.analysis[userID] = set
	}
	// merge semantics: only the two flagged fields change.
	set.IsUpdating = true
	set.LastUpdated = at
	return nil
}

func (s *Store) SaveMessages(_ context.Context, userID domain.UserID, set *domain.AnalysisMessageSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *set
	s.analysis[userID] = &cp
	return nil
}

func (s *Store) GetMessages(_ context.Context, userID domain.UserID) (*domain.AnalysisMessageSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.analysis[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *set
	return &cp, nil
}

// ─────────────────────────────────────────
// MentalHintStore
// ─────────────────────────────────────────

func (s *Store) MarkHintsUpdating(_ context.Context, userID domain.UserID, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.mentalHints[userID]
	if set == nil {
		set = &domain.MentalHintSet{}
		s.mentalHints[userID] = set
	}
	set.IsUpdating = true
	return nil
}

func (s *Store) SaveHints(_ context.Context, userID domain.UserID, set *domain.MentalHintSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *set
	cp.Hints = append([]domain.MentalHint{}, set.Hints...)
	s.mentalHints[userID] = &cp
	return nil
}

func (s *Store) GetHints(_ context.Context, userID domain.UserID) (*domain.MentalHintSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.mentalHints[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *set
	cp.Hints = append([]domain.MentalHint{}, set.Hints...)
	return &cp, nil
}

// ─────────────────────────────────────────
// MedicationStore / SupporterStore / UserStore
// ─────────────────────────────────────────

func (s *Store) ListMedications(_ context.Context, userID domain.UserID) ([]*domain.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.Medication{}, s.medications[userID]...), nil
}

func (s *Store) ListSupporters(_ context.Context, userID domain.UserID) ([]*domain.SupporterLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.SupporterLink{}, s.supporters[userID]...), nil
}

func (s *Store) GetUser(_ context.Context, userID domain.UserID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// ─────────────────────────────────────────
// InsightStore / SelfCareStore
// ─────────────────────────────────────────

func (s *Store) SaveInsight(_ context.Context, insight *domain.PersonalInsight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *insight
	s.insights[insight.UserID] = append(s.insights[insight.UserID], &cp)
	return nil
}

func (s *Store) RecordSuggestion(_ context.Context, userID domain.UserID, sugg *domain.SelfCareSuggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sugg
	s.selfCare[userID] = append(s.selfCare[userID], &cp)
	return nil
}

// ─────────────────────────────────────────
// Test seeding helpers
// ─────────────────────────────────────────

// PutUser upserts a user profile.
func (s *Store) PutUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
}

// PutMedications replaces a user's medication list.
func (s *Store) PutMedications(userID domain.UserID, meds []*domain.Medication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.medications[userID] = meds
}

// PutSupporters replaces a user's supporter list.
func (s *Store) PutSupporters(userID domain.UserID, links []*domain.SupporterLink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supporters[userID] = links
}

// Insights returns a copy of a user's saved insights.
func (s *Store) Insights(userID domain.UserID) []*domain.PersonalInsight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.PersonalInsight{}, s.insights[userID]...)
}

// Suggestions returns a copy of a user's self-care records.
func (s *Store) Suggestions(userID domain.UserID) []*domain.SelfCareSuggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.SelfCareSuggestion{}, s.selfCare[userID]...)
}
