package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
)

type fakeSource struct {
	records []models.RSVP
	err     error
}

func (f *fakeSource) List(context.Context) ([]models.RSVP, error) {
	return f.records, f.err
}

type recordingSender struct {
	channel string
	err     error
	sent    []Message
}

func (s *recordingSender) Channel() string { return s.channel }

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

type panickingSender struct{}

func (panickingSender) Channel() string { return "broken" }

func (panickingSender) Send(context.Context, Message) error { panic("boom") }

var testEvent = models.Event{BrideName: "Dania", GroomName: "Motasem", Date: "March 28, 2026"}

func newTestNotifier(src *fakeSource, senders ...Sender) *Notifier {
	amman, _ := time.LoadLocation("Asia/Amman")
	return New(src, senders, Options{Event: testEvent, Location: amman}, zerolog.Nop())
}

func TestNotifyRendersRecordAndTally(t *testing.T) {
	rec := models.RSVP{ID: "1", Name: "Ali", Phone: "0790000000", Attending: true, CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	src := &fakeSource{records: []models.RSVP{rec, {Name: "Sara", Attending: false}}}
	sender := &recordingSender{channel: "test"}

	err := newTestNotifier(src, sender).Notify(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "Wedding RSVP - Ali - Attending", msg.Subject)
	assert.Contains(t, msg.HTML, "Ali")
	assert.Contains(t, msg.HTML, "0790000000")
	assert.Contains(t, msg.HTML, "Will Attend / سيحضر")
	assert.Contains(t, msg.HTML, "Motasem &amp; Dania")
	assert.Contains(t, msg.Text, "✅ 1 attending")
	assert.Contains(t, msg.Text, "❌ 1 declined")
	assert.Contains(t, msg.Text, "📋 2 total")
	// 10:00 UTC is 13:00 in Amman
	assert.Contains(t, msg.Text, "Mar 1, 2026 1:00 PM")
}

func TestNotifyEscapesGuestInput(t *testing.T) {
	rec := models.RSVP{Name: "<script>alert(1)</script>", Phone: "1"}
	sender := &recordingSender{channel: "test"}

	require.NoError(t, newTestNotifier(&fakeSource{records: []models.RSVP{rec}}, sender).Notify(context.Background(), rec))
	assert.NotContains(t, sender.sent[0].HTML, "<script>")
	assert.Contains(t, sender.sent[0].HTML, "&lt;script&gt;")
	assert.Equal(t, "Wedding RSVP - <script>alert(1)</script> - Not Attending", sender.sent[0].Subject)
}

func TestNotifyReportsEveryFailedChannel(t *testing.T) {
	providerErr := errors.New("provider rejected the message")
	ok := &recordingSender{channel: "ok"}
	bad := &recordingSender{channel: "email-api", err: providerErr}

	err := newTestNotifier(&fakeSource{}, bad, ok, panickingSender{}).Notify(context.Background(), models.RSVP{Name: "Ali"})
	require.Error(t, err)
	assert.ErrorIs(t, err, providerErr)
	assert.Len(t, ok.sent, 1, "one failing channel does not stop the others")
	assert.Len(t, bad.sent, 1, "no retry")

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "email-api", de.Channel)
	assert.Contains(t, err.Error(), "broken delivery failed: sender panicked: boom")
}

func TestNotifyWithoutChannels(t *testing.T) {
	err := newTestNotifier(&fakeSource{}).Notify(context.Background(), models.RSVP{})
	assert.ErrorIs(t, err, ErrNoChannels)
}

func TestNotifyDoesNotSendWhenTallyFails(t *testing.T) {
	readErr := errors.New("read failed")
	sender := &recordingSender{channel: "test"}

	err := newTestNotifier(&fakeSource{err: readErr}, sender).Notify(context.Background(), models.RSVP{Name: "Ali"})
	assert.ErrorIs(t, err, readErr)
	assert.Empty(t, sender.sent)
}

func TestSendTest(t *testing.T) {
	sender := &recordingSender{channel: "test"}
	require.NoError(t, newTestNotifier(&fakeSource{}, sender).SendTest(context.Background()))
	require.Len(t, sender.sent, 1)
	assert.True(t, strings.HasPrefix(sender.sent[0].Subject, "Wedding RSVP - Test notification"))
}

func TestSendDigest(t *testing.T) {
	src := &fakeSource{records: []models.RSVP{
		{Attending: true, CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		{Attending: true},
		{Attending: false},
	}}
	sender := &recordingSender{channel: "test"}

	require.NoError(t, newTestNotifier(src, sender).SendDigest(context.Background()))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "✅ 2 attending")
	assert.Contains(t, sender.sent[0].Text, "📋 3 total")
	assert.Contains(t, sender.sent[0].Text, "Last response / آخر رد: Mar 2, 2026 12:00 PM")
}

func TestChannels(t *testing.T) {
	n := newTestNotifier(&fakeSource{}, &recordingSender{channel: "smtp"}, &recordingSender{channel: "whatsapp"})
	assert.Equal(t, []string{"smtp", "whatsapp"}, n.Channels())
}
