package analyzer

import (
	"context"
	"fmt"
	"time"

	"csi-insights-go/internal/align"
	"csi-insights-go/internal/chat"
	"csi-insights-go/internal/emotion"
	"csi-insights-go/internal/escalate"
	"csi-insights-go/internal/llm"
	"csi-insights-go/internal/logger"
	"csi-insights-go/internal/notify"
	"csi-insights-go/internal/prompt"
	"csi-insights-go/internal/report"
	"csi-insights-go/internal/segment"
	"csi-insights-go/internal/session"
	"csi-insights-go/internal/transcribe"
)

const escalationSubject = "Issue regarding customer service"

// Analyzer orchestrates the full per-call pipeline: transcription and
// emotion extraction fan in to alignment, the escalation check fires
// the supervisor notification at most once, and a single model call
// scores the call into a report that seeds the follow-up conversation.
type Analyzer struct {
	transcriber transcribe.Transcriber
	emotions    emotion.Extractor
	model       llm.Client
	notifier    notify.Notifier
	sessions    *session.Store
	prompts     *prompt.Builder
	policy      escalate.Policy
	chatLoop    *chat.Orchestrator
	supervisor  string
	log         *logger.Logger
}

// Config wires the analyzer's collaborators.
type Config struct {
	Transcriber transcribe.Transcriber
	Emotions    emotion.Extractor
	Model       llm.Client
	Notifier    notify.Notifier
	Sessions    *session.Store
	Prompts     *prompt.Builder
	Policy      escalate.Policy
	// Supervisor is the escalation recipient address.
	Supervisor string
	Log        *logger.Logger
}

func New(cfg Config) *Analyzer {
	if cfg.Log == nil {
		cfg.Log = logger.New()
	}
	if cfg.Prompts == nil {
		cfg.Prompts = prompt.NewBuilder()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewStore()
	}
	return &Analyzer{
		transcriber: cfg.Transcriber,
		emotions:    cfg.Emotions,
		model:       cfg.Model,
		notifier:    cfg.Notifier,
		sessions:    cfg.Sessions,
		prompts:     cfg.Prompts,
		policy:      cfg.Policy,
		chatLoop:    chat.NewOrchestrator(cfg.Model, cfg.Prompts, cfg.Log),
		supervisor:  cfg.Supervisor,
		log:         cfg.Log.WithComponent("analyzer"),
	}
}

// Sessions exposes the call store for read endpoints.
func (a *Analyzer) Sessions() *session.Store { return a.sessions }

// Analyze runs the whole pipeline for one recording and returns the
// live call session with its scored report. Alignment and collaborator
// errors are fatal to the request; a failed notification is logged and
// the report is still produced.
func (a *Analyzer) Analyze(ctx context.Context, audioURL string) (*session.Call, *report.Report, error) {
	call := a.sessions.New(audioURL)
	log := a.log.WithCall(call.ID)
	start := time.Now()

	transcripts, emotions, err := a.gather(ctx, audioURL)
	if err != nil {
		a.sessions.Delete(call.ID)
		return nil, nil, err
	}
	log.WithField("transcript_segments", len(transcripts)).
		WithField("emotion_segments", len(emotions)).Debug("collaborators done")

	turns, err := align.Annotate(transcripts, emotions)
	if err != nil {
		a.sessions.Delete(call.ID)
		return nil, nil, fmt.Errorf("align: %w", err)
	}

	flag := a.policy.Detect(turns)
	call.SetFlag(flag)
	if flag.Escalate {
		a.notifyOnce(ctx, call, flag)
	}

	rep, err := a.score(ctx, turns)
	if err != nil {
		a.sessions.Delete(call.ID)
		return nil, nil, err
	}
	call.SetReport(rep)
	if err := call.Buffer().Seed(rep.Narrative); err != nil {
		// a fresh call's buffer cannot be seeded twice
		log.WithError(err).Error("buffer seed refused")
	}

	log.WithField("csi", rep.CSI).
		WithField("escalated", flag.Escalate).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("call analyzed")
	return call, rep, nil
}

// gather runs transcription and emotion extraction concurrently.
// Neither depends on the other's output; alignment is the join point.
func (a *Analyzer) gather(ctx context.Context, audioURL string) ([]segment.Transcript, []segment.Emotion, error) {
	type tResult struct {
		segs []segment.Transcript
		err  error
	}
	type eResult struct {
		segs []segment.Emotion
		err  error
	}
	trCh := make(chan tResult, 1)
	emCh := make(chan eResult, 1)

	go func() {
		segs, err := a.transcriber.Transcribe(ctx, audioURL)
		trCh <- tResult{segs, err}
	}()
	go func() {
		segs, err := a.emotions.ExtractEmotions(ctx, audioURL)
		emCh <- eResult{segs, err}
	}()

	var transcripts []segment.Transcript
	var emotions []segment.Emotion
	for i := 0; i < 2; i++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case tr := <-trCh:
			if tr.err != nil {
				return nil, nil, fmt.Errorf("transcription: %w", tr.err)
			}
			transcripts = tr.segs
		case em := <-emCh:
			if em.err != nil {
				return nil, nil, fmt.Errorf("emotion extraction: %w", em.err)
			}
			emotions = em.segs
		}
	}
	return transcripts, emotions, nil
}

// notifyOnce dispatches the escalation notification guarded by the
// per-call marker: however often the flag is re-evaluated, the
// supervisor hears about a call exactly once. A failed send is a
// warning, never a pipeline failure.
func (a *Analyzer) notifyOnce(ctx context.Context, call *session.Call, flag escalate.Flag) {
	log := a.log.WithCall(call.ID)
	if a.notifier == nil || a.supervisor == "" {
		log.Warn("escalation flagged but no notifier configured")
		return
	}
	if !call.MarkNotified() {
		log.Debug("escalation already notified")
		return
	}
	body := fmt.Sprintf("A customer service call needs attention.\n\nReason: %s\nCall: %s\nRecording: %s\n",
		flag.Reason, call.ID, call.AudioURL)
	if err := a.notifier.Send(ctx, a.supervisor, escalationSubject, body); err != nil {
		log.WithError(err).Warn("escalation notification failed")
		return
	}
	log.Info("escalation notification sent")
}

// score is the single-shot scoring session: build the prompt, invoke
// the model once, parse category scores into a report. No retry here;
// retry policy belongs to the caller since the call is idempotent.
func (a *Analyzer) score(ctx context.Context, turns []segment.AnnotatedTurn) (*report.Report, error) {
	p := a.prompts.Scoring(turns)
	raw, err := a.model.Generate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}
	rep, err := report.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}
	return rep, nil
}

// Chat answers a follow-up question about an analyzed call.
func (a *Analyzer) Chat(ctx context.Context, callID, query string) (string, error) {
	call, err := a.sessions.Get(callID)
	if err != nil {
		return "", err
	}
	return a.chatLoop.Ask(ctx, call, query)
}
