package console

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/tally"
)

type staticSource []models.RSVP

func (s staticSource) List(context.Context) ([]models.RSVP, error) { return s, nil }

type brokenSource struct{}

func (brokenSource) List(context.Context) ([]models.RSVP, error) {
	return nil, errors.New("disk gone")
}

type testSender struct{ err error }

func (s testSender) SendTest(context.Context) error { return s.err }

var records = staticSource{
	{Name: "Ali", Phone: "0790000000", Attending: true, CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	{Name: "Sara", Phone: "0791111111", Attending: false, CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
}

func run(t *testing.T, input string, src tally.Source, tester TestSender) string {
	t.Helper()
	var out strings.Builder
	New(strings.NewReader(input), &out, src, tester, time.UTC).Run(context.Background())
	return out.String()
}

func TestViewAll(t *testing.T) {
	out := run(t, "1\n5\n", records, nil)
	assert.Contains(t, out, "All Responses (2 total)")
	assert.Contains(t, out, "Name: Ali")
	assert.Contains(t, out, "Answer: yes")
	assert.Contains(t, out, "Submitted: 2026-03-01 10:00:00")
	assert.Contains(t, out, "Closing console")
}

func TestViewByAnswer(t *testing.T) {
	out := run(t, "2\n2\n", records, nil)
	assert.Contains(t, out, "Responses with answer 'no' (1 total)")
	assert.Contains(t, out, "Name: Sara")
	assert.NotContains(t, out, "Name: Ali")

	out = run(t, "2\n9\n", records, nil)
	assert.Contains(t, out, "Invalid choice.")
}

func TestViewTally(t *testing.T) {
	out := run(t, "3\n", records, nil)
	assert.Contains(t, out, "✅ Attending: 1")
	assert.Contains(t, out, "❌ Declined: 1")
	assert.Contains(t, out, "📋 Total: 2")

	out = run(t, "3\n", brokenSource{}, nil)
	assert.Contains(t, out, "Error reading responses")
}

func TestSendTest(t *testing.T) {
	assert.Contains(t, run(t, "4\n", records, nil), "No notification channels configured.")
	assert.Contains(t, run(t, "4\n", records, testSender{}), "Test notification sent!")
	assert.Contains(t, run(t, "4\n", records, testSender{err: errors.New("smtp down")}), "smtp down")
}

func TestUnknownCommandAndEOF(t *testing.T) {
	out := run(t, "x\n", staticSource{}, nil)
	assert.Contains(t, out, "Invalid command.")
	assert.Equal(t, 2, strings.Count(out, "Enter command"), "menu is shown again, then input ends")
}
