package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"hashchat/internal/domain"
)

// Outcome es el estado terminal de un submit.
type Outcome string

const (
	OutcomeRejected        Outcome = "rejected"
	OutcomeDelivered       Outcome = "delivered"
	OutcomeDeliveryPartial Outcome = "delivery_partial"
)

var ErrDraining = errors.New("relay draining")

// Mensajes que ve el cliente en el evento error.
const (
	msgInvalidMessage = "Invalid message data"
	msgSendFailed     = "Failed to send message"
	msgShuttingDown   = "Server is shutting down"
)

type MessageStore interface {
	Append(ctx context.Context, senderID, receiverID, text string) (domain.Message, error)
}

type Directory interface {
	DisplayNameOf(ctx context.Context, userID string) (string, error)
}

// Observer recibe outcomes y resultados de push; lo implementa internal/metrics.
type Observer interface {
	ObserveOutcome(outcome string)
	ObservePush(err error)
}

type nopObserver struct{}

func (nopObserver) ObserveOutcome(string) {}
func (nopObserver) ObservePush(error)     {}

type SubmitInput struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Text     string `json:"text"`
}

// Engine orquesta un submit completo: valida, persiste, resuelve sesiones y reparte.
// Submits distintos no se serializan entre si.
type Engine struct {
	logger    *zap.Logger
	store     MessageStore
	directory Directory
	registry  Registry
	observer  Observer

	mu       sync.RWMutex
	draining bool
	inflight sync.WaitGroup
}

func NewEngine(logger *zap.Logger, store MessageStore, directory Directory, registry Registry, observer Observer) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Engine{
		logger:    logger,
		store:     store,
		directory: directory,
		registry:  registry,
		observer:  observer,
	}
}

// Join asocia el canal al usuario. Falla solo si el engine esta drenando.
func (e *Engine) Join(ch Channel, userID string) error {
	if ch == nil {
		return fmt.Errorf("%w: channel is required", domain.ErrValidation)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.draining {
		return ErrDraining
	}
	e.registry.Join(userID, ch)
	e.logger.Debug("channel joined", zap.String("channel", ch.ID()), zap.String("user_id", userID))
	return nil
}

func (e *Engine) Leave(ch Channel) {
	if ch == nil {
		return
	}
	e.registry.Leave(ch)
	e.logger.Debug("channel left", zap.String("channel", ch.ID()))
}

// Submit procesa un send_message. Los errores de validacion y persistencia se
// notifican solo a origin; los fallos de push quedan aislados en cada canal.
func (e *Engine) Submit(ctx context.Context, origin Channel, in SubmitInput) (Outcome, error) {
	e.mu.RLock()
	if e.draining {
		e.mu.RUnlock()
		e.reject(origin, msgShuttingDown)
		return OutcomeRejected, ErrDraining
	}
	e.inflight.Add(1)
	e.mu.RUnlock()
	defer e.inflight.Done()

	in.Sender = strings.TrimSpace(in.Sender)
	in.Receiver = strings.TrimSpace(in.Receiver)
	if err := validate(in); err != nil {
		e.logger.Info("submit rejected", zap.Error(err), zap.String("sender", in.Sender))
		e.reject(origin, msgInvalidMessage)
		return OutcomeRejected, err
	}

	msg, err := e.store.Append(ctx, in.Sender, in.Receiver, in.Text)
	if err != nil {
		e.logger.Error("message append failed",
			zap.Error(err),
			zap.String("sender", in.Sender),
			zap.String("receiver", in.Receiver),
		)
		if errors.Is(err, domain.ErrValidation) {
			e.reject(origin, msgInvalidMessage)
			return OutcomeRejected, err
		}
		e.reject(origin, msgSendFailed)
		if !errors.Is(err, domain.ErrPersistence) {
			err = fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		return OutcomeRejected, err
	}

	payload := domain.NewDeliveryPayload(msg, e.displayName(ctx, msg.SenderID))
	outcome := e.deliver(payload)
	e.observer.ObserveOutcome(string(outcome))
	return outcome, nil
}

// Shutdown deja de aceptar joins y submits y espera los submits en curso.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.draining = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) deliver(payload domain.DeliveryPayload) Outcome {
	targets := e.registry.SessionsFor(payload.Sender)
	if payload.Receiver != payload.Sender {
		targets = append(targets, e.registry.SessionsFor(payload.Receiver)...)
	}
	targets = lo.UniqBy(targets, func(ch Channel) string { return ch.ID() })

	evt := ReceiveMessageEvent(payload)
	failed := 0
	for _, ch := range targets {
		err := ch.Push(evt)
		e.observer.ObservePush(err)
		if err != nil {
			failed++
			e.logger.Warn("push failed",
				zap.Error(fmt.Errorf("%w: %v", domain.ErrDeliveryPush, err)),
				zap.String("channel", ch.ID()),
				zap.String("message_id", payload.ID),
			)
		}
	}

	e.logger.Debug("message relayed",
		zap.String("message_id", payload.ID),
		zap.Int("targets", len(targets)),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		return OutcomeDeliveryPartial
	}
	return OutcomeDelivered
}

func (e *Engine) displayName(ctx context.Context, userID string) string {
	if e.directory == nil {
		return domain.UnknownDisplayName
	}
	name, err := e.directory.DisplayNameOf(ctx, userID)
	if err != nil || strings.TrimSpace(name) == "" {
		e.logger.Debug("display name lookup failed", zap.Error(err), zap.String("user_id", userID))
		return domain.UnknownDisplayName
	}
	return name
}

func (e *Engine) reject(origin Channel, message string) {
	e.observer.ObserveOutcome(string(OutcomeRejected))
	if origin == nil {
		return
	}
	if err := origin.Push(ErrorEvent(message)); err != nil {
		e.logger.Debug("error event not delivered", zap.Error(err), zap.String("channel", origin.ID()))
	}
}

func validate(in SubmitInput) error {
	switch {
	case in.Sender == "":
		return fmt.Errorf("%w: sender is required", domain.ErrValidation)
	case in.Receiver == "":
		return fmt.Errorf("%w: receiver is required", domain.ErrValidation)
	case strings.TrimSpace(in.Text) == "":
		return fmt.Errorf("%w: text is required", domain.ErrValidation)
	}
	return nil
}
