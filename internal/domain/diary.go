package domain

import "time"

// WeatherSnapshot is the weather captured when the entry was written.
type WeatherSnapshot struct {
	Description        string  `json:"description,omitempty"`
	TemperatureCelsius float64 `json:"temperature_celsius,omitempty"`
	PressureHPa        float64 `json:"pressure_hpa,omitempty"`
	Humidity           float64 `json:"humidity,omitempty"`
}

// DiaryLog is one mood/diary entry. The user creates it once; the
// annotator later fills the AI fields (aiComment, positivity, overall
// score) in a single follow-up update.
type DiaryLog struct {
	ID        LogID
	UserID    UserID
	Timestamp time.Time

	SelfReportedMoodScore int    // 1–5
	DiaryText             string // optional
	AIComment             string // set by the annotator

	// OverallMoodScore blends the self-reported score with the AI
	// positivity score; defaults to the self-reported score until the
	// annotator runs.
	OverallMoodScore          float64
	AIAnalyzedPositivityScore *float64 // 0.0–1.0, nil until analyzed

	SelectedEvents     []string
	SleepDurationHours *float64
	Weather            *WeatherSnapshot
}

// EffectiveMoodScore is the score the aggregation engine classifies on:
// overall if present, else self-reported, else neutral 3.
func (l *DiaryLog) EffectiveMoodScore() float64 {
	if l.OverallMoodScore > 0 {
		return l.OverallMoodScore
	}
	if l.SelfReportedMoodScore > 0 {
		return float64(l.SelfReportedMoodScore)
	}
	return 3
}

// AnnotationUpdate carries the fields the annotator merges into an
// existing DiaryLog.
type AnnotationUpdate struct {
	AIComment                 *string
	OverallMoodScore          *float64
	AIAnalyzedPositivityScore *float64
}

// PeriodDefinition is one fixed analysis lookback window.
type PeriodDefinition struct {
	Name       string // daily, weekly, monthly
	WindowDays int
	Label      string // human label used in prompts, e.g. 「過去30日間」
}

// AnalysisPeriods are the three windows every analysis run covers.
func AnalysisPeriods() []PeriodDefinition {
	return []PeriodDefinition{
		{Name: "daily", WindowDays: 30, Label: "過去30日間"},
		{Name: "weekly", WindowDays: 84, Label: "過去12週間"}, // 12 weeks
		{Name: "monthly", WindowDays: 365, Label: "過去12ヶ月"},
	}
}

// AnalysisMessageSet is the per-user singleton holding the latest
// period summaries. isUpdating must never survive a finished run.
type AnalysisMessageSet struct {
	DailyMessage   string
	WeeklyMessage  string
	MonthlyMessage string
	IsUpdating     bool
	LastUpdated    time.Time
	UpdatedAt      time.Time
}

// Medication is one registered medication of a user.
type Medication struct {
	Name            string
	Dosage          string
	ReminderEnabled bool
	ReminderTime    string // "HH:MM", empty when no reminder is set
}

// SupporterLink is a person supporting the user.
type SupporterLink struct {
	SupporterName string
	Relationship  string
}

// User holds the profile fields the backend needs.
type User struct {
	ID       UserID
	FCMToken string
}

// PersonalInsight is a generated monthly reflection over diary logs.
type PersonalInsight struct {
	ID                  InsightID
	UserID              UserID
	GeneratedAt         time.Time
	PeriodStart         time.Time
	PeriodEnd           time.Time
	SummaryText         string
	KeyObservations     []string
	PositiveAffirmation string
}

// MentalHint is one short pattern observation shown on the hints screen.
type MentalHint struct {
	Title   string
	Content string
	Icon    string
	Type    string // positive, warning, neutral
}

// MentalHintSet is the per-user singleton holding the current hints.
// Like the analysis singleton, isUpdating must never survive a
// finished refresh.
type MentalHintSet struct {
	Hints       []MentalHint
	Message     string
	PeriodStart time.Time
	PeriodEnd   time.Time
	TotalLogs   int
	IsUpdating  bool
	UpdatedAt   time.Time
}

// SelfCareSuggestion records one push-delivered self-care tip.
type SelfCareSuggestion struct {
	OriginalLogID LogID
	MoodLevel     int
	Suggestion    string
	IsPushSent    bool
	PushMessageID string
	Error         string
	Timestamp     time.Time
}
