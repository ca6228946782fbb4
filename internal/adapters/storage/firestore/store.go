package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kokoron/kokoron-backend/internal/domain"
)

// Store implements every document-store port on one Firestore client.
// All user data hangs off users/{uid} subcollections.
type Store struct {
	client *firestore.Client
}

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Path helpers
// ─────────────────────────────────────────

func (s *Store) userDoc(userID domain.UserID) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(string(userID))
}

func (s *Store) diaryLogsCol(userID domain.UserID) *firestore.CollectionRef {
	return s.userDoc(userID).Collection("aiDiaryLogs")
}

func (s *Store) analysisMessagesDoc(userID domain.UserID) *firestore.DocumentRef {
	return s.userDoc(userID).Collection("analysisMessages").Doc("messages")
}

func (s *Store) mentalHintsDoc(userID domain.UserID) *firestore.DocumentRef {
	return s.userDoc(userID).Collection("mentalHints").Doc("current")
}

// ─────────────────────────────────────────
// Firestore document types
// ─────────────────────────────────────────

type diaryLogDoc struct {
	UserID                    string             `firestore:"userId"`
	Timestamp                 time.Time          `firestore:"timestamp"`
	SelfReportedMoodScore     int                `firestore:"selfReportedMoodScore"`
	DiaryText                 string             `firestore:"diaryText"`
	AIComment                 string             `firestore:"aiComment"`
	OverallMoodScore          float64            `firestore:"overallMoodScore"`
	AIAnalyzedPositivityScore *float64           `firestore:"aiAnalyzedPositivityScore"`
	SelectedEvents            []string           `firestore:"selectedEvents"`
	SleepDurationHours        *float64           `firestore:"sleepDurationHours"`
	Weather                   *weatherDoc        `firestore:"weatherData"`
	LastUpdatedByFunction     time.Time          `firestore:"lastUpdatedByFunction,omitempty"`
}

type weatherDoc struct {
	Description        string  `firestore:"description"`
	TemperatureCelsius float64 `firestore:"temperatureCelsius"`
	PressureHPa        float64 `firestore:"pressureHPa"`
	Humidity           float64 `firestore:"humidity"`
}

type analysisMessagesDocT struct {
	DailyMessage   string    `firestore:"dailyMessage"`
	WeeklyMessage  string    `firestore:"weeklyMessage"`
	MonthlyMessage string    `firestore:"monthlyMessage"`
	IsUpdating     bool      `firestore:"isUpdating"`
	LastUpdated    time.Time `firestore:"lastUpdated"`
	UpdatedAt      time.Time `firestore:"updatedAt"`
}

type mentalHintDoc struct {
	Title   string `firestore:"title"`
	Content string `firestore:"content"`
	Icon    string `firestore:"icon"`
	Type    string `firestore:"type"`
}

type mentalHintsDocT struct {
	Hints      []mentalHintDoc `firestore:"hints"`
	Message    string          `firestore:"message"`
	Period     analyzedPeriod  `firestore:"analyzedPeriod"`
	TotalLogs  int             `firestore:"totalLogs"`
	IsUpdating bool            `firestore:"isUpdating"`
	UpdatedAt  time.Time       `firestore:"updatedAt"`
}

type analyzedPeriod struct {
	Start time.Time `firestore:"start"`
	End   time.Time `firestore:"end"`
}

type medicationDoc struct {
	Name            string `firestore:"name"`
	Dosage          string `firestore:"dosage"`
	ReminderEnabled bool   `firestore:"reminderEnabled"`
	ReminderTime    string `firestore:"reminderTime"`
}

type supporterLinkDoc struct {
	SupporterName string `firestore:"supporterName"`
	Relationship  string `firestore:"relationship"`
}

type userDocT struct {
	FCMToken string `firestore:"fcmToken"`
}

// ─────────────────────────────────────────
// DiaryLogStore
// ─────────────────────────────────────────

func (s *Store) CreateDiaryLog(ctx context.Context, log *domain.DiaryLog) (domain.LogID, error) {
	doc := toDiaryLogDoc(log)

	ref, _, err := s.diaryLogsCol(log.UserID).Add(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("firestore CreateDiaryLog: %w", err)
	}
	return domain.LogID(ref.ID), nil
}

func (s *Store) GetDiaryLog(ctx context.Context, userID domain.UserID, logID domain.LogID) (*domain.DiaryLog, error) {
	snap, err := s.diaryLogsCol(userID).Doc(string(logID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetDiaryLog: %w", err)
	}

	var doc diaryLogDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetDiaryLog decode: %w", err)
	}
	return fromDiaryLogDoc(snap.Ref.ID, &doc), nil
}

func (s *Store) ListDiaryLogsSince(ctx context.Context, userID domain.UserID, since time.Time) ([]*domain.DiaryLog, error) {
	q := s.diaryLogsCol(userID).
		Where("timestamp", ">=", since).
		OrderBy("timestamp", firestore.Desc)

	return s.collectDiaryLogs(ctx, q, "ListDiaryLogsSince")
}

func (s *Store) ListRecentDiaryLogs(ctx context.Context, userID domain.UserID, limit int) ([]*domain.DiaryLog, error) {
	q := s.diaryLogsCol(userID).OrderBy("timestamp", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	return s.collectDiaryLogs(ctx, q, "ListRecentDiaryLogs")
}

func (s *Store) collectDiaryLogs(ctx context.Context, q firestore.Query, op string) ([]*domain.DiaryLog, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.DiaryLog
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore %s: %w", op, err)
		}

		var doc diaryLogDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode diaryLogDoc: %w", err)
		}
		out = append(out, fromDiaryLogDoc(snap.Ref.ID, &doc))
	}
	return out, nil
}

func (s *Store) AnnotateDiaryLog(ctx context.Context, userID domain.UserID, logID domain.LogID, upd domain.AnnotationUpdate) error {
	data := map[string]interface{}{
		"lastUpdatedByFunction": firestore.ServerTimestamp,
	}
	if upd.AIComment != nil {
		data["aiComment"] = *upd.AIComment
	}
	if upd.OverallMoodScore != nil {
		data["overallMoodScore"] = *upd.OverallMoodScore
	}
	if upd.AIAnalyzedPositivityScore != nil {
		data["aiAnalyzedPositivityScore"] = *upd.AIAnalyzedPositivityScore
	}

	_, err := s.diaryLogsCol(userID).Doc(string(logID)).Set(ctx, data, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore AnnotateDiaryLog: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// AnalysisMessageStore
// ─────────────────────────────────────────

func (s *Store) MarkUpdating(ctx context.Context, userID domain.UserID, at time.Time) error {
	_, err := s.analysisMessagesDoc(userID).Set(ctx, map[string]interface{}{
		"isUpdating":  true,
		"lastUpdated": at,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore MarkUpdating: %w", err)
	}
	return nil
}

func (s *Store) SaveMessages(ctx context.Context, userID domain.UserID, set *domain.AnalysisMessageSet) error {
	doc := analysisMessagesDocT{
		DailyMessage:   set.DailyMessage,
		WeeklyMessage:  set.WeeklyMessage,
		MonthlyMessage: set.MonthlyMessage,
		IsUpdating:     set.IsUpdating,
		LastUpdated:    set.LastUpdated,
		UpdatedAt:      set.UpdatedAt,
	}

	// Full overwrite: the set must stay self-consistent.
	_, err := s.analysisMessagesDoc(userID).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore SaveMessages: %w", err)
	}
	return nil
}

func (s *Store) GetMessages(ctx context.Context, userID domain.UserID) (*domain.AnalysisMessageSet, error) {
	snap, err := s.analysisMessagesDoc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetMessages: %w", err)
	}

	var doc analysisMessagesDocT
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetMessages decode: %w", err)
	}
	return &domain.AnalysisMessageSet{
		DailyMessage:   doc.DailyMessage,
		WeeklyMessage:  doc.WeeklyMessage,
		MonthlyMessage: doc.MonthlyMessage,
		IsUpdating:     doc.IsUpdating,
		LastUpdated:    doc.LastUpdated,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

// ─────────────────────────────────────────
// MentalHintStore
// ─────────────────────────────────────────

func (s *Store) MarkHintsUpdating(ctx context.Context, userID domain.UserID, at time.Time) error {
	_, err := s.mentalHintsDoc(userID).Set(ctx, map[string]interface{}{
		"isUpdating":  true,
		"lastUpdated": at,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore MarkHintsUpdating: %w", err)
	}
	return nil
}

func (s *Store) SaveHints(ctx context.Context, userID domain.UserID, set *domain.MentalHintSet) error {
	doc := mentalHintsDocT{
		Hints:      make([]mentalHintDoc, 0, len(set.Hints)),
		Message:    set.Message,
		Period:     analyzedPeriod{Start: set.PeriodStart, End: set.PeriodEnd},
		TotalLogs:  set.TotalLogs,
		IsUpdating: set.IsUpdating,
		UpdatedAt:  set.UpdatedAt,
	}
	for _, h := range set.Hints {
		doc.Hints = append(doc.Hints, mentalHintDoc{
			Title:   h.Title,
			Content: h.Content,
			Icon:    h.Icon,
			Type:    h.Type,
		})
	}

	// Full overwrite: the set must stay self-consistent.
	_, err := s.mentalHintsDoc(userID).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore SaveHints: %w", err)
	}
	return nil
}

func (s *Store) GetHints(ctx context.Context, userID domain.UserID) (*domain.MentalHintSet, error) {
	snap, err := s.mentalHintsDoc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetHints: %w", err)
	}

	var doc mentalHintsDocT
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetHints decode: %w", err)
	}

	set := &domain.MentalHintSet{
		Hints:       make([]domain.MentalHint, 0, len(doc.Hints)),
		Message:     doc.Message,
		PeriodStart: doc.Period.Start,
		PeriodEnd:   doc.Period.End,
		TotalLogs:   doc.TotalLogs,
		IsUpdating:  doc.IsUpdating,
		UpdatedAt:   doc.UpdatedAt,
	}
	for _, h := range doc.Hints {
		set.Hints = append(set.Hints, domain.MentalHint{
			Title:   h.Title,
			Content: h.Content,
			Icon:    h.Icon,
			Type:    h.Type,
		})
	}
	return set, nil
}

// ─────────────────────────────────────────
// MedicationStore / SupporterStore / UserStore
// ─────────────────────────────────────────

func (s *Store) ListMedications(ctx context.Context, userID domain.UserID) ([]*domain.Medication, error) {
	iter := s.userDoc(userID).Collection("medications").Documents(ctx)
	defer iter.Stop()

	var out []*domain.Medication
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListMedications: %w", err)
		}

		var doc medicationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode medicationDoc: %w", err)
		}
		out = append(out, &domain.Medication{
			Name:            doc.Name,
			Dosage:          doc.Dosage,
			ReminderEnabled: doc.ReminderEnabled,
			ReminderTime:    doc.ReminderTime,
		})
	}
	return out, nil
}

func (s *Store) ListSupporters(ctx context.Context, userID domain.UserID) ([]*domain.SupporterLink, error) {
	iter := s.userDoc(userID).Collection("supporterLinks").Documents(ctx)
	defer iter.Stop()

	var out []*domain.SupporterLink
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListSupporters: %w", err)
		}

		var doc supporterLinkDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode supporterLinkDoc: %w", err)
		}
		out = append(out, &domain.SupporterLink{
			SupporterName: doc.SupporterName,
			Relationship:  doc.Relationship,
		})
	}
	return out, nil
}

func (s *Store) GetUser(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	snap, err := s.userDoc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetUser: %w", err)
	}

	var doc userDocT
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetUser decode: %w", err)
	}
	return &domain.User{ID: userID, FCMToken: doc.FCMToken}, nil
}

// ─────────────────────────────────────────
// InsightStore / SelfCareStore
// ─────────────────────────────────────────

func (s *Store) SaveInsight(ctx context.Context, insight *domain.PersonalInsight) error {
	doc := map[string]interface{}{
		"insightId":           string(insight.ID),
		"userId":              string(insight.UserID),
		"generatedDate":       insight.GeneratedAt,
		"periodCoveredStart":  insight.PeriodStart,
		"periodCoveredEnd":    insight.PeriodEnd,
		"summaryText":         insight.SummaryText,
		"keyObservations":     insight.KeyObservations,
		"positiveAffirmation": insight.PositiveAffirmation,
	}

	_, err := s.userDoc(insight.UserID).Collection("personalInsights").Doc(string(insight.ID)).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore SaveInsight: %w", err)
	}
	return nil
}

func (s *Store) RecordSuggestion(ctx context.Context, userID domain.UserID, sugg *domain.SelfCareSuggestion) error {
	doc := map[string]interface{}{
		"originalLogId": string(sugg.OriginalLogID),
		"moodLevel":     sugg.MoodLevel,
		"suggestion":    sugg.Suggestion,
		"isPushSent":    sugg.IsPushSent,
		"timestamp":     sugg.Timestamp,
	}
	if sugg.PushMessageID != "" {
		doc["pushMessageId"] = sugg.PushMessageID
	}
	if sugg.Error != "" {
		doc["error"] = sugg.Error
	}

	_, _, err := s.userDoc(userID).Collection("selfCareSuggestions").Add(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore RecordSuggestion: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// Converters
// ─────────────────────────────────────────

func toDiaryLogDoc(log *domain.DiaryLog) *diaryLogDoc {
	doc := &diaryLogDoc{
		UserID:                    string(log.UserID),
		Timestamp:                 log.Timestamp,
		SelfReportedMoodScore:     log.SelfReportedMoodScore,
		DiaryText:                 log.DiaryText,
		AIComment:                 log.AIComment,
		OverallMoodScore:          log.OverallMoodScore,
		AIAnalyzedPositivityScore: log.AIAnalyzedPositivityScore,
		SelectedEvents:            log.SelectedEvents,
		SleepDurationHours:        log.SleepDurationHours,
	}
	if log.Weather != nil {
		doc.Weather = &weatherDoc{
			Description:        log.Weather.Description,
			TemperatureCelsius: log.Weather.TemperatureCelsius,
			PressureHPa:        log.Weather.PressureHPa,
			Humidity:           log.Weather.Humidity,
		}
	}
	return doc
}

func fromDiaryLogDoc(id string, doc *diaryLogDoc) *domain.DiaryLog {
	log := &domain.DiaryLog{
		ID:                        domain.LogID(id),
		UserID:                    domain.UserID(doc.UserID),
		Timestamp:                 doc.Timestamp,
		SelfReportedMoodScore:     doc.SelfReportedMoodScore,
		DiaryText:                 doc.DiaryText,
		AIComment:                 doc.AIComment,
		OverallMoodScore:          doc.OverallMoodScore,
		AIAnalyzedPositivityScore: doc.AIAnalyzedPositivityScore,
		SelectedEvents:            doc.SelectedEvents,
		SleepDurationHours:        doc.SleepDurationHours,
	}
	if doc.Weather != nil {
		log.Weather = &domain.WeatherSnapshot{
			Description:        doc.Weather.Description,
			TemperatureCelsius: doc.Weather.TemperatureCelsius,
			PressureHPa:        doc.Weather.PressureHPa,
			Humidity:           doc.Weather.Humidity,
		}
	}
	return log
}
