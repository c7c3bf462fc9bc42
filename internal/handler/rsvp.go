package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/observability"
	"wedding-rsvp/internal/storage"
)

// Guest-facing messages.
const (
	MessageAttending = "Thank you! We look forward to celebrating with you! / شكراً لك! نتطلع للاحتفال معك!"
	MessageDeclined  = "Thank you for letting us know. We will miss you! / شكراً لإعلامنا. سنفتقدك!"
	MessageMissing   = "Please fill in all fields / يرجى ملء جميع الحقول"
	MessageInvalid   = "Please choose whether you will attend / يرجى اختيار ما إذا كنت ستحضر"
	MessageRetry     = "Something went wrong, please try again / حدث خطأ، يرجى المحاولة مرة أخرى"
)

// NotifyMode selects how a submission waits for the host notification.
type NotifyMode string

const (
	// NotifyBlocking waits for delivery and reports its outcome to the guest,
	// but a failed delivery never turns the response into a failure.
	NotifyBlocking NotifyMode = "blocking"
	// NotifyAsync responds as soon as the RSVP is stored and delivers in the
	// background.
	NotifyAsync NotifyMode = "async"
)

// ParseNotifyMode validates a configured mode.
func ParseNotifyMode(value string) (NotifyMode, error) {
	switch NotifyMode(value) {
	case NotifyBlocking, NotifyAsync:
		return NotifyMode(value), nil
	}
	return "", fmt.Errorf("unknown notify mode %q (want %q or %q)", value, NotifyBlocking, NotifyAsync)
}

var (
	// ErrMissingField is wrapped by a ValidationError for an absent or blank field.
	ErrMissingField = errors.New("field is required")
)

// ValidationError is a guest-correctable input problem.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// GuestMessage is the bilingual text shown for this error.
func (e *ValidationError) GuestMessage() string {
	if errors.Is(e.Err, models.ErrInvalidAttendance) {
		return MessageInvalid
	}
	return MessageMissing
}

// Notifier announces a stored RSVP to the hosts.
type Notifier interface {
	Notify(ctx context.Context, rec models.RSVP) error
}

// Input is a raw guest submission.
type Input struct {
	Name      string
	Phone     string
	Attending string
}

// Result is what the guest sees after a stored submission. EmailSent is nil
// when delivery happens in the background or no notifier is configured.
type Result struct {
	Record     models.RSVP
	Message    string
	EmailSent  *bool
	EmailError string
}

// Config controls how submissions notify the hosts.
type Config struct {
	Mode NotifyMode
	// NotifyTimeout bounds a single notification attempt.
	NotifyTimeout time.Duration
}

// RSVPHandler runs the submission workflow: validate, persist, notify.
type RSVPHandler struct {
	store    storage.Store
	notifier Notifier
	config   Config
	log      zerolog.Logger
	now      func() time.Time
	inflight sync.WaitGroup
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(store storage.Store, notifier Notifier, cfg Config, logger zerolog.Logger) *RSVPHandler {
	if cfg.Mode == "" {
		cfg.Mode = NotifyBlocking
	}
	return &RSVPHandler{
		store:    store,
		notifier: notifier,
		config:   cfg,
		log:      logger.With().Str("component", "rsvp").Logger(),
		now:      time.Now,
	}
}

// Submit validates and stores one guest response, then notifies the hosts
// according to the configured mode. It returns a *ValidationError for bad
// input and an error wrapping storage.ErrPersistence when the write fails;
// notification problems are reported only through the Result.
func (h *RSVPHandler) Submit(ctx context.Context, in Input) (Result, error) {
	rec, err := validate(in)
	if err != nil {
		observability.RecordSubmission(observability.OutcomeInvalid)
		return Result{}, err
	}
	rec.CreatedAt = h.now()

	// A guest closing the page must not abort the write or the notification.
	ctx = context.WithoutCancel(ctx)

	stored, err := h.store.Create(ctx, rec)
	if err != nil {
		observability.RecordSubmission(observability.OutcomePersistenceFail)
		h.log.Error().Err(err).Str("name", rec.Name).Msg("Failed to store RSVP")
		return Result{}, fmt.Errorf("failed to store RSVP: %w", err)
	}
	observability.RecordSubmission(observability.OutcomeAccepted)
	observability.RecordResponse(stored.Attending, stored.CreatedAt)
	h.log.Info().
		Str("rsvp_id", stored.ID).
		Str("name", stored.Name).
		Bool("attending", stored.Attending).
		Msg("RSVP stored")

	res := Result{Record: stored, Message: MessageDeclined}
	if stored.Attending {
		res.Message = MessageAttending
	}

	if h.notifier == nil {
		return res, nil
	}
	if h.config.Mode == NotifyAsync {
		h.notifyInBackground(ctx, stored)
		return res, nil
	}

	sent := true
	if err := h.notify(ctx, stored); err != nil {
		sent = false
		res.EmailError = err.Error()
	}
	res.EmailSent = &sent
	return res, nil
}

// Wait blocks until background notifications have finished.
func (h *RSVPHandler) Wait() {
	h.inflight.Wait()
}

func (h *RSVPHandler) notifyInBackground(ctx context.Context, rec models.RSVP) {
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		_ = h.notify(ctx, rec)
	}()
}

func (h *RSVPHandler) notify(ctx context.Context, rec models.RSVP) error {
	if h.config.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.NotifyTimeout)
		defer cancel()
	}
	err := h.notifier.Notify(ctx, rec)
	if err != nil {
		h.log.Warn().Err(err).Str("rsvp_id", rec.ID).Msg("Host notification failed, RSVP is saved")
	}
	return err
}

func validate(in Input) (models.RSVP, error) {
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	answer := strings.TrimSpace(in.Attending)

	for _, f := range []struct{ field, value string }{
		{"name", name},
		{"phone", phone},
		{"attending", answer},
	} {
		if f.value == "" {
			return models.RSVP{}, &ValidationError{Field: f.field, Err: ErrMissingField}
		}
	}

	attendance, err := models.ParseAttendance(answer)
	if err != nil {
		return models.RSVP{}, &ValidationError{Field: "attending", Err: err}
	}

	return models.RSVP{
		Name:      name,
		Phone:     phone,
		Attending: attendance.Attending(),
	}, nil
}
