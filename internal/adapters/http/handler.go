package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kokoron/kokoron-backend/internal/app/agent"
	"github.com/kokoron/kokoron-backend/internal/app/chat"
	"github.com/kokoron/kokoron-backend/internal/app/diary"
	"github.com/kokoron/kokoron-backend/internal/app/hints"
	"github.com/kokoron/kokoron-backend/internal/app/insight"
	"github.com/kokoron/kokoron-backend/internal/app/reminder"
	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

// Server wires the app services onto the HTTP surface.
type Server struct {
	diarySvc    *diary.Service
	agentLoop   *agent.Loop
	chatSvc     *chat.Service
	insightSvc  *insight.Service
	hintsSvc    *hints.Service
	reminderSvc *reminder.Service
	analysis    domain.AnalysisMessageStore
}

func NewServer(
	diarySvc *diary.Service,
	agentLoop *agent.Loop,
	chatSvc *chat.Service,
	insightSvc *insight.Service,
	hintsSvc *hints.Service,
	reminderSvc *reminder.Service,
	analysis domain.AnalysisMessageStore,
	jwtSecret string,
) http.Handler {
	s := &Server{
		diarySvc:    diarySvc,
		agentLoop:   agentLoop,
		chatSvc:     chatSvc,
		insightSvc:  insightSvc,
		hintsSvc:    hintsSvc,
		reminderSvc: reminderSvc,
		analysis:    analysis,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(withRequestID)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth(jwtSecret))

			r.Post("/diary", s.handleRecordDiary)
			r.Get("/analysis-messages", s.handleGetAnalysisMessages)
			r.Post("/chat/empathetic", s.handleEmpatheticChat)
			r.Post("/chat/partner", s.handlePartnerChat)
			r.Post("/communication-advice", s.handleCommunicationAdvice)
			r.Post("/insights/generate", s.handleGenerateInsight)
			r.Get("/mental-hints", s.handleGetMentalHints)
			r.Post("/mental-hints/refresh", s.handleRefreshMentalHints)
			r.Post("/reminders/run", s.handleRunReminders)
		})
	})

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type recordDiaryRequest struct {
	SelfReportedMoodScore int                     `json:"selfReportedMoodScore"`
	DiaryText             string                  `json:"diaryText,omitempty"`
	SelectedEvents        []string                `json:"selectedEvents,omitempty"`
	SleepDurationHours    *float64                `json:"sleepDurationHours,omitempty"`
	WeatherData           *domain.WeatherSnapshot `json:"weatherData,omitempty"`
}

type recordDiaryResponse struct {
	Success   bool   `json:"success"`
	LogID     string `json:"logId"`
	AIComment string `json:"aiComment,omitempty"`
}

type chatTurnDTO struct {
	Role  string `json:"role"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

type empatheticChatRequest struct {
	UserMessage       string        `json:"userMessage"`
	ChatHistory       []chatTurnDTO `json:"chatHistory,omitempty"`
	MedicationContext []string      `json:"medicationContext,omitempty"`
}

type chatResponse struct {
	AIResponse string `json:"aiResponse"`
}

type partnerChatRequest struct {
	UserMessage string        `json:"userMessage"`
	ChatHistory []chatTurnDTO `json:"chatHistory,omitempty"`
}

type communicationAdviceRequest struct {
	Situation    string `json:"situation"`
	PartnerQuery string `json:"partnerQuery,omitempty"`
}

type communicationAdviceResponse struct {
	AdviceText     string   `json:"adviceText"`
	ExamplePhrases []string `json:"examplePhrases"`
}

type analysisMessagesResponse struct {
	DailyMessage   string     `json:"dailyMessage"`
	WeeklyMessage  string     `json:"weeklyMessage"`
	MonthlyMessage string     `json:"monthlyMessage"`
	IsUpdating     bool       `json:"isUpdating"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

type mentalHintDTO struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Icon    string `json:"icon"`
	Type    string `json:"type"`
}

type analyzedPeriodDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type mentalHintsResponse struct {
	Hints          []mentalHintDTO   `json:"hints"`
	Message        string            `json:"message,omitempty"`
	AnalyzedPeriod analyzedPeriodDTO `json:"analyzedPeriod"`
	TotalLogs      int               `json:"totalLogs"`
	IsUpdating     bool              `json:"isUpdating"`
	UpdatedAt      *time.Time        `json:"updatedAt,omitempty"`
}

type runRemindersResponse struct {
	Success bool `json:"success"`
	Sent    int  `json:"sent"`
}

type generateInsightResponse struct {
	Success             bool     `json:"success"`
	Message             string   `json:"message,omitempty"`
	InsightID           string   `json:"insightId,omitempty"`
	SummaryText         string   `json:"summaryText,omitempty"`
	KeyObservations     []string `json:"keyObservations,omitempty"`
	PositiveAffirmation string   `json:"positiveAffirmation,omitempty"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleRecordDiary(w http.ResponseWriter, r *http.Request) {
	var req recordDiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SelfReportedMoodScore < 1 || req.SelfReportedMoodScore > 5 {
		badRequest(w, "selfReportedMoodScore must be between 1 and 5")
		return
	}

	out, err := s.diarySvc.RecordEntry(r.Context(), diary.RecordEntryInput{
		UserID:                callerID(r),
		SelfReportedMoodScore: req.SelfReportedMoodScore,
		DiaryText:             req.DiaryText,
		SelectedEvents:        req.SelectedEvents,
		SleepDurationHours:    req.SleepDurationHours,
		Weather:               req.WeatherData,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, recordDiaryResponse{
		Success:   true,
		LogID:     string(out.LogID),
		AIComment: out.AIComment,
	})
}

func (s *Server) handleGetAnalysisMessages(w http.ResponseWriter, r *http.Request) {
	set, err := s.analysis.GetMessages(r.Context(), callerID(r))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// No run has happened yet; an empty set is a valid state.
			writeJSON(w, http.StatusOK, analysisMessagesResponse{})
			return
		}
		internalError(w, r, err)
		return
	}

	resp := analysisMessagesResponse{
		DailyMessage:   set.DailyMessage,
		WeeklyMessage:  set.WeeklyMessage,
		MonthlyMessage: set.MonthlyMessage,
		IsUpdating:     set.IsUpdating,
	}
	if !set.UpdatedAt.IsZero() {
		resp.UpdatedAt = &set.UpdatedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEmpatheticChat(w http.ResponseWriter, r *http.Request) {
	var req empatheticChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		badRequest(w, "userMessage is required")
		return
	}

	reply, err := s.agentLoop.Run(r.Context(), agent.RunInput{
		UserID:            callerID(r),
		Message:           req.UserMessage,
		History:           toTurns(req.ChatHistory),
		MedicationContext: req.MedicationContext,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{AIResponse: reply})
}

func (s *Server) handlePartnerChat(w http.ResponseWriter, r *http.Request) {
	var req partnerChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		badRequest(w, "userMessage is required")
		return
	}

	reply, err := s.chatSvc.PartnerAdvice(r.Context(), callerID(r), req.UserMessage, toTurns(req.ChatHistory))
	if err != nil {
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{AIResponse: reply})
}

func (s *Server) handleCommunicationAdvice(w http.ResponseWriter, r *http.Request) {
	var req communicationAdviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Situation) == "" {
		badRequest(w, "situation is required")
		return
	}

	advice, err := s.chatSvc.GetCommunicationAdvice(r.Context(), callerID(r), req.Situation, req.PartnerQuery)
	if err != nil {
		internalError(w, r, err)
		return
	}

	phrases := advice.ExamplePhrases
	if phrases == nil {
		phrases = []string{}
	}
	writeJSON(w, http.StatusOK, communicationAdviceResponse{
		AdviceText:     advice.AdviceText,
		ExamplePhrases: phrases,
	})
}

func (s *Server) handleGenerateInsight(w http.ResponseWriter, r *http.Request) {
	out, err := s.insightSvc.Generate(r.Context(), callerID(r))
	if err != nil {
		internalError(w, r, err)
		return
	}

	if out.Insight == nil {
		writeJSON(w, http.StatusOK, generateInsightResponse{
			Success: false,
			Message: out.Message,
		})
		return
	}

	writeJSON(w, http.StatusOK, generateInsightResponse{
		Success:             true,
		InsightID:           string(out.Insight.ID),
		SummaryText:         out.Insight.SummaryText,
		KeyObservations:     out.Insight.KeyObservations,
		PositiveAffirmation: out.Insight.PositiveAffirmation,
	})
}

func (s *Server) handleGetMentalHints(w http.ResponseWriter, r *http.Request) {
	set, err := s.hintsSvc.Get(r.Context(), callerID(r))
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMentalHintsResponse(set))
}

func (s *Server) handleRefreshMentalHints(w http.ResponseWriter, r *http.Request) {
	set, err := s.hintsSvc.Refresh(r.Context(), callerID(r))
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMentalHintsResponse(set))
}

func (s *Server) handleRunReminders(w http.ResponseWriter, r *http.Request) {
	sent, err := s.reminderSvc.SendDueReminders(r.Context(), callerID(r), time.Now())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runRemindersResponse{Success: true, Sent: sent})
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func toMentalHintsResponse(set *domain.MentalHintSet) mentalHintsResponse {
	resp := mentalHintsResponse{
		Hints:          make([]mentalHintDTO, 0, len(set.Hints)),
		Message:        set.Message,
		AnalyzedPeriod: analyzedPeriodDTO{Start: set.PeriodStart, End: set.PeriodEnd},
		TotalLogs:      set.TotalLogs,
		IsUpdating:     set.IsUpdating,
	}
	for _, h := range set.Hints {
		resp.Hints = append(resp.Hints, mentalHintDTO{
			Title:   h.Title,
			Content: h.Content,
			Icon:    h.Icon,
			Type:    h.Type,
		})
	}
	if !set.UpdatedAt.IsZero() {
		resp.UpdatedAt = &set.UpdatedAt
	}
	return resp
}

func toTurns(history []chatTurnDTO) []domain.Turn {
	out := make([]domain.Turn, 0, len(history))
	for _, t := range history {
		role := domain.RoleUser
		if t.Role == "model" {
			role = domain.RoleModel
		}
		turn := domain.Turn{Role: role}
		for _, p := range t.Parts {
			turn.Parts = append(turn.Parts, domain.Part{Text: p.Text})
		}
		if len(turn.Parts) > 0 {
			out = append(out, turn)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("request failed",
		"path", r.URL.Path,
		"error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
