package service

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aetheria/aetheria/server/internal/domain/entity"
	"github.com/aetheria/aetheria/server/internal/domain/repository"
	"github.com/aetheria/aetheria/server/internal/infrastructure/eventbus"
	"github.com/aetheria/aetheria/server/pkg/errors"
	"github.com/aetheria/aetheria/server/pkg/safego"
)

// Pacing calibrates the simulated typing cadence. Values are presentation
// tuning; the algorithm shape (initial think delay, then a sequential
// delay-then-append per fragment) is fixed.
type Pacing struct {
	InitialDelay   time.Duration // read + think before the first bubble
	InitialJitter  time.Duration // random extra on top of InitialDelay
	BaseThinking   time.Duration // pause between bubbles
	PerCharTyping  time.Duration // typing time per rune of Korean text
	EffectDelay    time.Duration // burst end → effect activation
	EffectDuration time.Duration // effect active window
}

// DefaultPacing mirrors the calibration of the original UI.
func DefaultPacing() Pacing {
	return Pacing{
		InitialDelay:   2 * time.Second,
		InitialJitter:  1 * time.Second,
		BaseThinking:   1 * time.Second,
		PerCharTyping:  150 * time.Millisecond,
		EffectDelay:    2 * time.Second,
		EffectDuration: 8 * time.Second,
	}
}

// State is a read-only snapshot of the orchestrator's UI-facing flags.
type State struct {
	Loading      bool                `json:"loading"`
	Typing       bool                `json:"typing"`
	ActiveEffect entity.VisualEffect `json:"activeEffect"`
}

// Orchestrator turns one parsed service reply into a paced sequence of
// store appends: Idle → Sending → Bursting → Idle, with an independent
// effect sub-state (EffectIdle → EffectActive → EffectIdle).
//
// Concurrent turns are not queued: if the user sends again mid-burst, both
// bursts run on independent timers and their appends interleave in
// whatever order the timers fire. That matches the source behavior and is
// deliberately preserved (each burst stays internally ordered).
type Orchestrator struct {
	store  repository.ConversationStore
	chat   ChatClient
	bus    eventbus.Bus
	logger *zap.Logger
	pacing Pacing

	mu      sync.Mutex
	loading bool
	typing  bool
	effect  entity.VisualEffect
	// effectSeq guards against a stale deactivation clearing a newer
	// pulse: last activation wins.
	effectSeq uint64

	// ctx is the per-burst cancellation handle; Close stops pending
	// timers and suppresses any further store mutation.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator wires the orchestrator to its store, chat backend and
// event bus. Pacing is fixed for the orchestrator's lifetime.
func NewOrchestrator(store repository.ConversationStore, chat ChatClient, bus eventbus.Bus, pacing Pacing, logger *zap.Logger) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:  store,
		chat:   chat,
		bus:    bus,
		logger: logger,
		pacing: pacing,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SendTurn submits one user turn. The user message is appended
// optimistically and never rolled back; the service call and the paced
// burst run on a goroutine that outlives the originating request, bounded
// by the orchestrator's own lifetime.
func (o *Orchestrator) SendTurn(text string, attachments []entity.Attachment, displayName string) (entity.Message, error) {
	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return entity.Message{}, errors.NewInvalidInputError("turn needs text or attachments")
	}

	// History is snapshotted before the user append: the new turn travels
	// separately in the request, not duplicated in history.
	history := o.store.Messages()

	userMsg := entity.NewUserMessage(uuid.NewString(), text, attachments)
	o.store.Append(userMsg)
	o.publishMessage(eventbus.EventTypeMessageAppended, userMsg)

	o.setLoading(true)
	o.setTyping(true)

	o.wg.Add(1)
	safego.Go(o.logger, "turn-burst", func() {
		defer o.wg.Done()
		o.runTurn(history, text, attachments, displayName)
	})

	o.logger.Info("Turn submitted",
		zap.String("message_id", userMsg.ID),
		zap.Int("attachments", len(attachments)),
		zap.Int("history", len(history)),
	)
	return userMsg, nil
}

// ToggleTranslation flips the translation visibility of one message.
// Idempotent in pairs; a stale id is a silent no-op.
func (o *Orchestrator) ToggleTranslation(id string) {
	var after entity.Message
	updated := o.store.UpdateByID(id, func(m *entity.Message) {
		m.ShowTranslation = !m.ShowTranslation
		after = *m
	})
	if updated {
		o.publishMessage(eventbus.EventTypeMessageUpdated, after)
	}
}

// State returns a snapshot of the UI-facing flags.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return State{Loading: o.loading, Typing: o.typing, ActiveEffect: o.effect}
}

// Close cancels pending bursts and effect timers and waits for their
// goroutines. Nothing is appended after Close returns.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// --- Internal ---

// runTurn: Sending → Bursting → Idle for one turn.
func (o *Orchestrator) runTurn(history []entity.Message, text string, attachments []entity.Attachment, displayName string) {
	// ChatClient never fails; every failure arrives as a degraded reply.
	reply := o.chat.Send(o.ctx, history, text, attachments, displayName)
	o.setLoading(false)

	o.runBurst(reply)

	// The effect pulse runs on its own timeline and may overlap the next
	// Sending cycle.
	if reply.TriggerEffect != entity.EffectNone {
		o.wg.Add(1)
		safego.Go(o.logger, "effect-pulse", func() {
			defer o.wg.Done()
			o.runEffectPulse(reply.TriggerEffect)
		})
	}
}

// runBurst appends the reply fragments on the pacing schedule. Fragments
// are strictly sequential: fragment i+1's timer starts only after
// fragment i has been appended.
func (o *Orchestrator) runBurst(reply *ParsedReply) {
	if len(reply.Replies) == 0 {
		// Single "..." placeholder, typing cleared right after it.
		o.appendModel("...", "...")
		o.setTyping(false)
		return
	}

	if !o.sleep(o.initialThinkDelay()) {
		return
	}

	for _, frag := range reply.Replies {
		typing := o.pacing.BaseThinking +
			time.Duration(len([]rune(frag.Korean)))*o.pacing.PerCharTyping
		if !o.sleep(typing) {
			return
		}
		o.appendModel(frag.Korean, frag.Chinese)
	}

	o.setTyping(false)
}

// runEffectPulse activates the effect after the post-burst delay and
// clears it a fixed duration later, unless a newer pulse took over.
func (o *Orchestrator) runEffectPulse(effect entity.VisualEffect) {
	if !o.sleep(o.pacing.EffectDelay) {
		return
	}

	o.mu.Lock()
	o.effectSeq++
	seq := o.effectSeq
	o.effect = effect
	o.mu.Unlock()
	o.publishEffect(effect)

	if !o.sleep(o.pacing.EffectDuration) {
		return
	}

	o.mu.Lock()
	cleared := o.effectSeq == seq
	if cleared {
		o.effect = entity.EffectNone
	}
	o.mu.Unlock()
	if cleared {
		o.publishEffect(entity.EffectNone)
	}
}

func (o *Orchestrator) initialThinkDelay() time.Duration {
	d := o.pacing.InitialDelay
	if o.pacing.InitialJitter > 0 {
		d += time.Duration(rand.Int64N(int64(o.pacing.InitialJitter)))
	}
	return d
}

// sleep waits d, returning false if the orchestrator closed first.
func (o *Orchestrator) sleep(d time.Duration) bool {
	if d <= 0 {
		return o.ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-o.ctx.Done():
		return false
	}
}

func (o *Orchestrator) appendModel(text, translation string) {
	if o.ctx.Err() != nil {
		return
	}
	msg := entity.NewModelMessage(uuid.NewString(), text, translation)
	o.store.Append(msg)
	o.publishMessage(eventbus.EventTypeMessageAppended, msg)
}

func (o *Orchestrator) setLoading(on bool) {
	o.mu.Lock()
	o.loading = on
	o.mu.Unlock()
	o.bus.Publish(o.ctx, eventbus.NewEvent(eventbus.EventTypeLoadingChanged,
		eventbus.FlagPayload{On: on}))
}

func (o *Orchestrator) setTyping(on bool) {
	o.mu.Lock()
	o.typing = on
	o.mu.Unlock()
	o.bus.Publish(o.ctx, eventbus.NewEvent(eventbus.EventTypeTypingChanged,
		eventbus.FlagPayload{On: on}))
}

func (o *Orchestrator) publishMessage(eventType string, msg entity.Message) {
	o.bus.Publish(o.ctx, eventbus.NewEvent(eventType,
		eventbus.MessagePayload{Message: msg}))
}

func (o *Orchestrator) publishEffect(effect entity.VisualEffect) {
	o.bus.Publish(o.ctx, eventbus.NewEvent(eventbus.EventTypeEffectChanged,
		eventbus.EffectPayload{Effect: string(effect)}))
}
