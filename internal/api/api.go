package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"csi-insights-go/internal/analyzer"
	"csi-insights-go/internal/chat"
	"csi-insights-go/internal/emotion"
	"csi-insights-go/internal/insights"
	"csi-insights-go/internal/llm"
	"csi-insights-go/internal/logger"
	"csi-insights-go/internal/report"
	"csi-insights-go/internal/roster"
	"csi-insights-go/internal/segment"
	"csi-insights-go/internal/session"
	"csi-insights-go/internal/transcribe"
)

const defaultAnalyzeTimeout = 40 * time.Second

// Handlers is the HTTP surface over the analysis pipeline.
type Handlers struct {
	analyzer *analyzer.Analyzer
	roster   []roster.CallRecord
	summary  roster.Summary
	log      *logger.Logger
}

func New(a *analyzer.Analyzer, records []roster.CallRecord, summary roster.Summary, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.New()
	}
	return &Handlers{analyzer: a, roster: records, summary: summary, log: log}
}

// Routes mounts every endpoint.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", h.health)
	r.Post("/analyze", h.analyze)
	r.Post("/chat", h.chat)
	r.Get("/calls/{callID}", h.call)
	r.Get("/insights", h.insights)
	r.Get("/demo", h.demo)
	return r
}

type analyzeRequest struct {
	AudioURL   string `json:"audio_url"`
	TimeoutSec int    `json:"timeout_sec,omitempty"`
}

type analyzeResponse struct {
	CallID     string         `json:"call_id"`
	Escalated  bool           `json:"escalated"`
	Reason     string         `json:"escalation_reason,omitempty"`
	Report     *report.Report `json:"report"`
	DurationMs int64          `json:"duration_ms"`
}

type chatRequest struct {
	CallID string `json:"call_id"`
	Query  string `json:"query"`
}

type chatResponse struct {
	CallID string `json:"call_id"`
	Answer string `json:"answer"`
}

type callResponse struct {
	CallID       string         `json:"call_id"`
	AudioURL     string         `json:"audio_url"`
	Escalated    bool           `json:"escalated"`
	Reason       string         `json:"escalation_reason,omitempty"`
	Report       *report.Report `json:"report"`
	Conversation []llm.Message  `json:"conversation"`
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	h.log.WithRequest(r).Debug("health check")
	w.Write([]byte("ok"))
}

func (h *Handlers) analyze(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "analyze")

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AudioURL == "" {
		reqLog.Warn("bad analyze request")
		http.Error(w, "audio_url is required", http.StatusBadRequest)
		return
	}
	timeout := defaultAnalyzeTimeout
	if req.TimeoutSec > 0 {
		timeout = time.Duration(req.TimeoutSec) * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	start := time.Now()
	call, rep, err := h.analyzer.Analyze(ctx, req.AudioURL)
	if err != nil {
		reqLog.WithError(err).Warn("analysis failed")
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	flag := call.Flag()
	reqLog.WithField("call_id", call.ID).WithField("csi", rep.CSI).Info("analysis done")
	writeJSON(w, analyzeResponse{
		CallID:     call.ID,
		Escalated:  flag.Escalate,
		Reason:     flag.Reason,
		Report:     rep,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

func (h *Handlers) chat(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "chat")

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CallID == "" || req.Query == "" {
		reqLog.Warn("bad chat request")
		http.Error(w, "call_id and query are required", http.StatusBadRequest)
		return
	}

	answer, err := h.analyzer.Chat(r.Context(), req.CallID, req.Query)
	if err != nil {
		reqLog.WithError(err).WithField("call_id", req.CallID).Warn("chat failed")
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, chatResponse{CallID: req.CallID, Answer: answer})
}

func (h *Handlers) call(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	call, err := h.analyzer.Sessions().Get(callID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	flag := call.Flag()
	writeJSON(w, callResponse{
		CallID:       call.ID,
		AudioURL:     call.AudioURL,
		Escalated:    flag.Escalate,
		Reason:       flag.Reason,
		Report:       call.Report(),
		Conversation: call.Buffer().Messages(),
	})
}

func (h *Handlers) insights(w http.ResponseWriter, r *http.Request) {
	ins := insights.Aggregate(h.analyzer.Sessions().All())
	writeJSON(w, map[string]any{
		"insight":     ins,
		"action_card": insights.Generate(ins),
	})
}

// demo analyzes the first few roster calls so the pipeline can be
// demonstrated without a client driving it.
func (h *Handlers) demo(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "demo")
	if len(h.roster) == 0 {
		http.Error(w, "no roster loaded", http.StatusNotFound)
		return
	}

	limit := 5
	if len(h.roster) < limit {
		limit = len(h.roster)
	}
	out := make([]analyzeResponse, 0, limit)
	for _, rec := range h.roster[:limit] {
		recLog := reqLog.WithField("demo_call", rec.CallID).WithField("audio_url", rec.AudioURL)
		recLog.Info("processing demo call")

		ctx, cancel := context.WithTimeout(r.Context(), 25*time.Second)
		call, rep, err := h.analyzer.Analyze(ctx, rec.AudioURL)
		cancel()
		if err != nil {
			recLog.WithError(err).Warn("demo call failed")
			continue
		}
		flag := call.Flag()
		out = append(out, analyzeResponse{
			CallID:    call.ID,
			Escalated: flag.Escalate,
			Reason:    flag.Reason,
			Report:    rep,
		})
	}
	writeJSON(w, map[string]any{
		"roster_summary": h.summary,
		"results":        out,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// statusFor maps the pipeline's error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownCall):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrNotSeeded):
		return http.StatusConflict
	case errors.Is(err, segment.ErrInvalidSegment):
		return http.StatusUnprocessableEntity
	case errors.Is(err, llm.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, report.ErrMalformedModelOutput),
		errors.Is(err, transcribe.ErrTranscriptionFailed),
		errors.Is(err, emotion.ErrExtractionFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
