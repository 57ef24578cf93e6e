package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"csi-insights-go/internal/analyzer"
	"csi-insights-go/internal/api"
	"csi-insights-go/internal/emotion"
	"csi-insights-go/internal/escalate"
	"csi-insights-go/internal/llm"
	"csi-insights-go/internal/logger"
	"csi-insights-go/internal/notify"
	"csi-insights-go/internal/prompt"
	"csi-insights-go/internal/roster"
	"csi-insights-go/internal/session"
	"csi-insights-go/internal/transcribe"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "csi-insights-go").Info("starting service")

	transcriber, err := buildTranscriber(log)
	if err != nil {
		log.WithError(err).Fatal("transcription collaborator not configured")
	}
	extractor, err := buildExtractor(log)
	if err != nil {
		log.WithError(err).Fatal("emotion collaborator not configured")
	}
	model, err := buildModel(log)
	if err != nil {
		log.WithError(err).Fatal("language model collaborator not configured")
	}

	var notifier notify.Notifier = notify.NewStubNotifier(log)
	if sg := notify.NewSendGridNotifier(notify.SendGridConfig{
		APIKey:    os.Getenv("SENDGRID_API_KEY"),
		FromEmail: envOr("NOTIFY_FROM_EMAIL", "no-reply@csi-insights.local"),
		FromName:  os.Getenv("NOTIFY_FROM_NAME"),
	}, log); sg != nil {
		notifier = sg
	}

	var records []roster.CallRecord
	var summary roster.Summary
	if path := os.Getenv("ROSTER_PATH"); path != "" {
		log.WithField("roster_path", path).Info("loading call roster")
		records, summary, err = roster.LoadAndSummarize(path)
		if err != nil {
			log.WithError(err).Fatal("failed to load call roster")
		}
		log.WithField("total_calls", summary.TotalCalls).Info("call roster loaded")
	}

	supervisor := os.Getenv("SUPERVISOR_EMAIL")
	if supervisor == "" && len(records) > 0 {
		supervisor = records[0].SupervisorEmail
	}

	core := analyzer.New(analyzer.Config{
		Transcriber: transcriber,
		Emotions:    extractor,
		Model:       model,
		Notifier:    notifier,
		Sessions:    session.NewStore(),
		Prompts:     prompt.NewBuilder(),
		Policy:      escalate.DefaultPolicy(),
		Supervisor:  supervisor,
		Log:         log,
	})

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Mount("/", api.New(core, records, summary, log).Routes())

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func buildTranscriber(log *logger.Logger) (transcribe.Transcriber, error) {
	if os.Getenv("USE_MOCK_TRANSCRIBE") == "true" {
		log.Info("mock transcription mode ON")
		return transcribe.Mock{}, nil
	}
	return transcribe.NewHTTPClient(os.Getenv("TRANSCRIBE_URL"), log)
}

func buildExtractor(log *logger.Logger) (emotion.Extractor, error) {
	if os.Getenv("USE_MOCK_EMOTION") == "true" {
		log.Info("mock emotion mode ON")
		return emotion.Mock{}, nil
	}
	return emotion.NewHTTPClient(os.Getenv("EMOTION_URL"), log)
}

func buildModel(log *logger.Logger) (llm.Client, error) {
	if os.Getenv("USE_MOCK_LLM") == "true" {
		log.Info("mock LLM mode ON")
		return llm.MockClient{}, nil
	}
	if os.Getenv("LLM_PROVIDER") == "gemini" {
		return llm.NewGeminiClient(context.Background(), os.Getenv("GEMINI_API_KEY"), os.Getenv("LLM_MODEL"))
	}
	return llm.NewGatewayClient(llm.GatewayConfig{
		URL:    os.Getenv("LLM_GATEWAY_URL"),
		APIKey: os.Getenv("LLM_API_KEY"),
		Model:  os.Getenv("LLM_MODEL"),
	}, log)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
