// Package turn sequences one player action through narration, safety checking
// and inventory reconciliation.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
)

const (
	// StartCommand returns the world's opening text without calling any model.
	StartCommand = "start game"
	// InvalidOutputMessage replaces a narrative that failed the safety check.
	InvalidOutputMessage = "Invalid Output"

	tracerName = "github.com/erricrr/hf-togetherai-rpg/internal/turn"
)

// Outcome says which path a turn took.
type Outcome string

const (
	OutcomeStart   Outcome = "start"
	OutcomeUnsafe  Outcome = "unsafe"
	OutcomeApplied Outcome = "applied"
)

// Result describes a processed turn.
type Result struct {
	Message    string             // what the player sees
	Narrative  string             // narrator output; empty on the start path
	Summary    string             // inventory change lines appended to the narrative
	Updates    []state.ItemUpdate // updates returned by the extractor
	Categories []string           // violated categories when unsafe
	Outcome    Outcome
}

// Orchestrator runs turns against injected collaborators.
type Orchestrator struct {
	narrator  Narrator
	gate      SafetyGate
	extractor InventoryExtractor
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewOrchestrator creates an orchestrator. A nil logger uses slog.Default.
func NewOrchestrator(narrator Narrator, gate SafetyGate, extractor InventoryExtractor, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		narrator:  narrator,
		gate:      gate,
		extractor: extractor,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// ProcessTurn runs one turn and returns the text to show the player.
// gs.Inventory is mutated only when the narrative passes the safety check
// and its item updates apply cleanly.
func (o *Orchestrator) ProcessTurn(ctx context.Context, input string, history state.History, gs *state.GameState) (string, error) {
	res, err := o.Run(ctx, input, history, gs)
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

// Run is ProcessTurn with the full result.
func (o *Orchestrator) Run(ctx context.Context, input string, history state.History, gs *state.GameState) (res *Result, err error) {
	if gs == nil {
		return nil, errors.New("gamestate is required")
	}

	if input == StartCommand {
		return &Result{Message: gs.Start, Outcome: OutcomeStart}, nil
	}

	ctx, span := o.tracer.Start(ctx, "turn.process", trace.WithAttributes(
		attribute.Int("turn.history_len", len(history)),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("turn.outcome", string(res.Outcome)))
		}
		span.End()
	}()

	narrative, err := o.narrate(ctx, input, history, gs)
	if err != nil {
		return nil, err
	}

	verdict := o.check(ctx, narrative)
	if !verdict.Safe {
		o.logger.Warn("Narrative failed safety check",
			"categories", verdict.Categories,
			"duration_ms", time.Since(start).Milliseconds())
		return &Result{
			Message:    InvalidOutputMessage,
			Narrative:  narrative,
			Categories: verdict.Categories,
			Outcome:    OutcomeUnsafe,
		}, nil
	}

	updates, err := o.extract(ctx, gs.Inventory, narrative)
	if err != nil {
		return nil, err
	}

	summary, err := o.reconcile(ctx, gs, updates)
	if err != nil {
		return nil, err
	}

	o.logger.Info("Turn processed",
		"updates", len(updates),
		"inventory_items", len(gs.Inventory),
		"duration_ms", time.Since(start).Milliseconds())

	return &Result{
		Message:   narrative + summary,
		Narrative: narrative,
		Summary:   summary,
		Updates:   updates,
		Outcome:   OutcomeApplied,
	}, nil
}

func (o *Orchestrator) narrate(ctx context.Context, input string, history state.History, gs *state.GameState) (string, error) {
	ctx, span := o.tracer.Start(ctx, "turn.narrate")
	defer span.End()

	narrative, err := o.narrator.Narrate(ctx, input, history, gs)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to narrate: %w", err)
	}
	return narrative, nil
}

// check never fails. A gate error is logged and treated as unsafe.
func (o *Orchestrator) check(ctx context.Context, narrative string) Verdict {
	ctx, span := o.tracer.Start(ctx, "turn.safety")
	defer span.End()

	verdict, err := o.gate.Check(ctx, narrative)
	if err != nil {
		span.RecordError(err)
		o.logger.Error("Safety check failed, suppressing narrative", "error", err)
		return Verdict{Safe: false}
	}
	span.SetAttributes(attribute.Bool("turn.safe", verdict.Safe))
	return verdict
}

func (o *Orchestrator) extract(ctx context.Context, inv state.Inventory, narrative string) ([]state.ItemUpdate, error) {
	ctx, span := o.tracer.Start(ctx, "turn.extract")
	defer span.End()

	// The extractor gets a copy so it cannot touch the live inventory.
	updates, err := o.extractor.Extract(ctx, inv.Clone(), narrative)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to extract inventory changes: %w", err)
	}
	span.SetAttributes(attribute.Int("turn.updates", len(updates)))
	return updates, nil
}

func (o *Orchestrator) reconcile(ctx context.Context, gs *state.GameState, updates []state.ItemUpdate) (string, error) {
	_, span := o.tracer.Start(ctx, "turn.reconcile")
	defer span.End()

	summary, err := state.NewDeltaWorker(gs, updates, o.logger).Apply()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to apply inventory changes: %w", err)
	}
	return summary, nil
}
