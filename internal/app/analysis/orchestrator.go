package analysis

import (
	"context"
	"time"

	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/events"
	"github.com/kokoron/kokoron-backend/internal/fanout"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

// PeriodFallback replaces a period message whose analysis task failed
// outright (store error, panic), and fills the whole set when the run
// itself blows up.
const PeriodFallback = "日記を書いて、あなたのことをもっと教えてね！"

// Orchestrator reacts to every new diary entry by recomputing all
// period summaries and persisting them as one consistent set. It is a
// background consumer: failures are logged, never returned.
type Orchestrator struct {
	engine   *Engine
	messages domain.AnalysisMessageStore
	now      func() time.Time
}

func NewOrchestrator(engine *Engine, messages domain.AnalysisMessageStore) *Orchestrator {
	return &Orchestrator{
		engine:   engine,
		messages: messages,
		now:      time.Now,
	}
}

// HandleDiaryLogCreated is the event-bus subscription point.
func (o *Orchestrator) HandleDiaryLogCreated(ctx context.Context, evt events.DiaryLogCreated) {
	o.Run(ctx, evt.UserID)
}

// Run recomputes and persists the analysis message set for one user.
//
// The singleton is merge-written with isUpdating=true before the fan-out
// starts and fully replaced after the join, so readers either see the
// previous complete set (flagged as updating) or the new complete set.
// Two entries created near-simultaneously race on the final overwrite;
// last writer wins, as entries are created serially by one user in
// practice.
func (o *Orchestrator) Run(ctx context.Context, userID domain.UserID) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)
	log.Info("analysis run started")

	if err := o.messages.MarkUpdating(ctx, userID, o.now()); err != nil {
		log.Error("failed to mark analysis as updating", "error", err)
		o.persistFallbackSet(ctx, userID, log)
		return
	}

	periods := domain.AnalysisPeriods()
	tasks := make([]fanout.Task[string], len(periods))
	for i, period := range periods {
		tasks[i] = func(ctx context.Context) (string, error) {
			return o.engine.SummarizePeriod(ctx, userID, period)
		}
	}

	results := fanout.SettleAll(ctx, tasks)

	finishedAt := o.now()
	set := &domain.AnalysisMessageSet{
		IsUpdating:  false,
		LastUpdated: finishedAt,
		UpdatedAt:   finishedAt,
	}
	for i, res := range results {
		if !res.Ok() {
			log.Error("period analysis failed",
				"period", periods[i].Name,
				"error", res.Err)
		}
		msg := res.OrElse(PeriodFallback)
		switch periods[i].Name {
		case "daily":
			set.DailyMessage = msg
		case "weekly":
			set.WeeklyMessage = msg
		case "monthly":
			set.MonthlyMessage = msg
		}
	}

	if err := o.messages.SaveMessages(ctx, userID, set); err != nil {
		log.Error("failed to save analysis messages", "error", err)
		o.persistFallbackSet(ctx, userID, log)
		return
	}

	log.Info("analysis run completed",
		"daily", set.DailyMessage,
		"weekly", set.WeeklyMessage,
		"monthly", set.MonthlyMessage)
}

// persistFallbackSet is the catch-all terminal write: whatever went
// wrong, the singleton must not stay flagged as updating.
func (o *Orchestrator) persistFallbackSet(ctx context.Context, userID domain.UserID, log interface{ Error(string, ...any) }) {
	finishedAt := o.now()
	set := &domain.AnalysisMessageSet{
		DailyMessage:   PeriodFallback,
		WeeklyMessage:  PeriodFallback,
		MonthlyMessage: PeriodFallback,
		IsUpdating:     false,
		LastUpdated:    finishedAt,
		UpdatedAt:      finishedAt,
	}
	if err := o.messages.SaveMessages(ctx, userID, set); err != nil {
		log.Error("failed to save fallback analysis messages", "error", err)
	}
}
