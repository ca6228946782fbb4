package domain

import (
	"context"
	"time"
)

// LLMClient defines how the core application talks to the language model.
type LLMClient interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// DiaryLogStore persists diary entries.
type DiaryLogStore interface {
	CreateDiaryLog(ctx context.Context, log *DiaryLog) (LogID, error)
	GetDiaryLog(ctx context.Context, userID UserID, logID LogID) (*DiaryLog, error)
	// ListDiaryLogsSince returns entries with timestamp >= since, newest first.
	ListDiaryLogsSince(ctx context.Context, userID UserID, since time.Time) ([]*DiaryLog, error)
	// ListRecentDiaryLogs returns the newest `limit` entries, newest first.
	ListRecentDiaryLogs(ctx context.Context, userID UserID, limit int) ([]*DiaryLog, error)
	// AnnotateDiaryLog merges AI-derived fields into an existing entry.
	AnnotateDiaryLog(ctx context.Context, userID UserID, logID LogID, upd AnnotationUpdate) error
}

// AnalysisMessageStore persists the per-user analysis singleton.
type AnalysisMessageStore interface {
	// MarkUpdating merge-writes {isUpdating: true, lastUpdated: at}.
	MarkUpdating(ctx context.Context, userID UserID, at time.Time) error
	// SaveMessages fully replaces the singleton document.
	SaveMessages(ctx context.Context, userID UserID, set *AnalysisMessageSet) error
	GetMessages(ctx context.Context, userID UserID) (*AnalysisMessageSet, error)
}

// MentalHintStore persists the per-user mental-hints singleton.
type MentalHintStore interface {
	// MarkHintsUpdating merge-writes {isUpdating: true}.
	MarkHintsUpdating(ctx context.Context, userID UserID, at time.Time) error
	// SaveHints fully replaces the singleton document.
	SaveHints(ctx context.Context, userID UserID, set *MentalHintSet) error
	GetHints(ctx context.Context, userID UserID) (*MentalHintSet, error)
}

// MedicationStore reads the user's registered medications.
type MedicationStore interface {
	ListMedications(ctx context.Context, userID UserID) ([]*Medication, error)
}

// SupporterStore reads the user's linked supporters.
type SupporterStore interface {
	ListSupporters(ctx context.Context, userID UserID) ([]*SupporterLink, error)
}

// UserStore reads user profiles (FCM token lookup).
type UserStore interface {
	GetUser(ctx context.Context, userID UserID) (*User, error)
}

// InsightStore persists generated personal insights.
type InsightStore interface {
	SaveInsight(ctx context.Context, insight *PersonalInsight) error
}

// SelfCareStore records delivered (or failed) self-care suggestions.
type SelfCareStore interface {
	RecordSuggestion(ctx context.Context, userID UserID, s *SelfCareSuggestion) error
}

// PushNotification is one push payload.
type PushNotification struct {
	Title     string
	Body      string
	ChannelID string // android channel
	Category  string // apns category
}

// Notifier sends a push notification to a device token.
type Notifier interface {
	SendPush(ctx context.Context, token string, n PushNotification) (string, error)
}

// WebSearcher looks up a drug name on the public web and returns a
// short text summary.
type WebSearcher interface {
	SearchDrugInfo(ctx context.Context, drugName string) (string, error)
}
