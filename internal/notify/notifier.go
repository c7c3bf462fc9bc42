// Package notify tells the hosts about new RSVPs.
//
// A Notifier renders one bilingual message per event and hands it to every
// configured Sender exactly once. Failures are returned to the caller as
// *DeliveryError values and never retried.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/observability"
	"wedding-rsvp/internal/tally"
)

// ErrNoChannels is returned when no sender is configured.
var ErrNoChannels = errors.New("no notification channels configured")

// DeliveryError reports a failed send on one channel.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Message is a rendered notification. Email channels use HTML, chat channels Text.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message over one channel.
type Sender interface {
	Channel() string
	Send(ctx context.Context, msg Message) error
}

// Options carries the event details printed in every message.
type Options struct {
	Event    models.Event
	Location *time.Location
}

// Notifier renders host notifications and fans them out to every Sender.
type Notifier struct {
	source  tally.Source
	senders []Sender
	event   models.Event
	loc     *time.Location
	log     zerolog.Logger
	now     func() time.Time
}

// New creates a Notifier reading tallies from source.
func New(source tally.Source, senders []Sender, opts Options, logger zerolog.Logger) *Notifier {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{
		source:  source,
		senders: senders,
		event:   opts.Event,
		loc:     loc,
		log:     logger.With().Str("component", "notifier").Logger(),
		now:     time.Now,
	}
}

// Channels lists the configured channel names.
func (n *Notifier) Channels() []string {
	names := make([]string, 0, len(n.senders))
	for _, s := range n.senders {
		names = append(names, s.Channel())
	}
	return names
}

// Notify announces rec to the hosts together with the current tally. The
// tally is read after rec was stored, so it always includes it.
func (n *Notifier) Notify(ctx context.Context, rec models.RSVP) error {
	if len(n.senders) == 0 {
		return ErrNoChannels
	}

	t, _, err := tally.Load(ctx, n.source)
	if err != nil {
		n.log.Error().Err(err).Str("rsvp_id", rec.ID).Msg("Tally unavailable, notification not sent")
		return err
	}

	msg, err := renderResponse(responseView{
		Event:       n.event,
		Name:        rec.Name,
		Phone:       rec.Phone,
		Attending:   rec.Attending,
		SubmittedAt: formatTime(rec.CreatedAt, n.loc),
		Tally:       t,
	})
	if err != nil {
		return fmt.Errorf("failed to render notification: %w", err)
	}
	return n.deliver(ctx, msg)
}

// SendTest delivers a fixed message to confirm channel credentials.
func (n *Notifier) SendTest(ctx context.Context) error {
	if len(n.senders) == 0 {
		return ErrNoChannels
	}
	msg, err := renderTest(testView{Event: n.event, SentAt: formatTime(n.now(), n.loc)})
	if err != nil {
		return fmt.Errorf("failed to render test message: %w", err)
	}
	return n.deliver(ctx, msg)
}

// SendDigest delivers a summary of the current tally.
func (n *Notifier) SendDigest(ctx context.Context) error {
	if len(n.senders) == 0 {
		return ErrNoChannels
	}

	t, records, err := tally.Load(ctx, n.source)
	if err != nil {
		return err
	}

	view := digestView{
		Event:  n.event,
		Tally:  t,
		SentAt: formatTime(n.now(), n.loc),
	}
	if len(records) > 0 {
		view.LastResponseAt = formatTime(records[0].CreatedAt, n.loc)
	}
	msg, err := renderDigest(view)
	if err != nil {
		return fmt.Errorf("failed to render digest: %w", err)
	}
	return n.deliver(ctx, msg)
}

// deliver makes one attempt per channel and joins the failures.
func (n *Notifier) deliver(ctx context.Context, msg Message) error {
	var errs []error
	for _, s := range n.senders {
		err := sendOne(ctx, s, msg)
		observability.RecordNotification(s.Channel(), err)
		if err != nil {
			n.log.Error().Err(err).Str("channel", s.Channel()).Str("subject", msg.Subject).Msg("Notification failed")
			errs = append(errs, &DeliveryError{Channel: s.Channel(), Err: err})
			continue
		}
		n.log.Info().Str("channel", s.Channel()).Str("subject", msg.Subject).Msg("Notification sent")
	}
	return errors.Join(errs...)
}

func sendOne(ctx context.Context, s Sender, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panicked: %v", r)
		}
	}()
	return s.Send(ctx, msg)
}

func formatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Jan 2, 2006 3:04 PM")
}
