package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kokoron/kokoron-backend/internal/adapters/http"
	"github.com/kokoron/kokoron-backend/internal/adapters/llm"
	"github.com/kokoron/kokoron-backend/internal/adapters/notify"
	"github.com/kokoron/kokoron-backend/internal/adapters/search"
	firestorestore "github.com/kokoron/kokoron-backend/internal/adapters/storage/firestore"
	memstore "github.com/kokoron/kokoron-backend/internal/adapters/storage/memory"
	"github.com/kokoron/kokoron-backend/internal/app/agent"
	"github.com/kokoron/kokoron-backend/internal/app/analysis"
	"github.com/kokoron/kokoron-backend/internal/app/annotate"
	"github.com/kokoron/kokoron-backend/internal/app/chat"
	"github.com/kokoron/kokoron-backend/internal/app/diary"
	"github.com/kokoron/kokoron-backend/internal/app/hints"
	"github.com/kokoron/kokoron-backend/internal/app/insight"
	"github.com/kokoron/kokoron-backend/internal/app/reminder"
	"github.com/kokoron/kokoron-backend/internal/app/selfcare"
	"github.com/kokoron/kokoron-backend/internal/app/tools"
	"github.com/kokoron/kokoron-backend/internal/config"
	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/events"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	// LLM: scripted or Vertex by config (useful for dev)
	var (
		llmClient domain.LLMClient
		err       error
	)
	if cfg.UseMockLLM {
		log.Println("[LLM] Using scripted LLM client")
		llmClient = llm.NewScriptedClient()
	} else {
		log.Printf("[LLM] Using Vertex LLM client (model=%s)", cfg.ModelName)
		llmClient, err = llm.NewGeminiClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Vertex LLM client: %v", err)
		}
	}

	// Storage: Firestore or Memory
	var (
		logStore        domain.DiaryLogStore
		analysisStore   domain.AnalysisMessageStore
		hintStore       domain.MentalHintStore
		medicationStore domain.MedicationStore
		supporterStore  domain.SupporterStore
		userStore       domain.UserStore
		insightStore    domain.InsightStore
		selfCareStore   domain.SelfCareStore
	)

	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}

		// 1 store, implements all the storage ports
		logStore = fsStore
		analysisStore = fsStore
		hintStore = fsStore
		medicationStore = fsStore
		supporterStore = fsStore
		userStore = fsStore
		insightStore = fsStore
		selfCareStore = fsStore

	default:
		log.Println("[STORE] Using in-memory storage")
		memStore := memstore.NewStore()
		logStore = memStore
		analysisStore = memStore
		hintStore = memStore
		medicationStore = memStore
		supporterStore = memStore
		userStore = memStore
		insightStore = memStore
		selfCareStore = memStore
	}

	// Push: FCM or dry-run logging
	var notifier domain.Notifier
	if cfg.PushEnabled {
		log.Printf("[PUSH] Using FCM (project=%s)", cfg.GCPProjectID)
		notifier, err = notify.NewFCMNotifier(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing FCM: %v", err)
		}
	} else {
		log.Println("[PUSH] Push disabled, logging notifications")
		notifier = notify.NewLogNotifier()
	}

	// Agent tools
	registry := tools.NewRegistry(
		tools.NewMedicationInfoTool(medicationStore),
		tools.NewSupporterInfoTool(supporterStore),
		tools.NewDrugSearchTool(search.NewDuckDuckGoSearcher()),
	)

	// App services
	bus := events.NewBus()
	diarySvc := diary.NewService(logStore, llmClient, bus)
	agentLoop := agent.NewLoop(llmClient, registry, logStore)
	chatSvc := chat.NewService(llmClient)
	insightSvc := insight.NewService(logStore, insightStore, userStore, llmClient, notifier)
	hintsSvc := hints.NewService(logStore, hintStore, llmClient)
	reminderSvc := reminder.NewService(medicationStore, userStore, notifier)

	// Background consumers of new diary entries
	engine := analysis.NewEngine(logStore, llmClient)
	orchestrator := analysis.NewOrchestrator(engine, analysisStore)
	annotator := annotate.NewService(logStore, llmClient)
	selfCareSvc := selfcare.NewService(logStore, userStore, selfCareStore, llmClient, notifier)

	bus.Subscribe(orchestrator.HandleDiaryLogCreated)
	bus.Subscribe(annotator.HandleDiaryLogCreated)
	bus.Subscribe(selfCareSvc.HandleDiaryLogCreated)

	// HTTP server
	handler := httpadapter.NewServer(diarySvc, agentLoop, chatSvc, insightSvc, hintsSvc, reminderSvc, analysisStore, cfg.JWTSecret)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		log.Println("Kokoron API listening on port:", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	// Let in-flight event handlers (analysis runs, annotations) finish.
	bus.Wait()
}
