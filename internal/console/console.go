// Package console is an interactive operator menu on stdin.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/tally"
)

// TestSender delivers a fixed notification.
type TestSender interface {
	SendTest(ctx context.Context) error
}

type Console struct {
	scanner *bufio.Scanner
	out     io.Writer
	source  tally.Source
	tester  TestSender
	loc     *time.Location
}

// New creates a console. tester may be nil.
func New(in io.Reader, out io.Writer, source tally.Source, tester TestSender, loc *time.Location) *Console {
	if loc == nil {
		loc = time.UTC
	}
	return &Console{
		scanner: bufio.NewScanner(in),
		out:     out,
		source:  source,
		tester:  tester,
		loc:     loc,
	}
}

// Run shows the menu until the operator exits, input ends or ctx is done.
func (c *Console) Run(ctx context.Context) {
	for ctx.Err() == nil {
		fmt.Fprintln(c.out, "\nCommands:")
		fmt.Fprintln(c.out, "  1. View all responses")
		fmt.Fprintln(c.out, "  2. View responses by answer")
		fmt.Fprintln(c.out, "  3. View tally")
		fmt.Fprintln(c.out, "  4. Send test notification")
		fmt.Fprintln(c.out, "  5. Exit")
		fmt.Fprint(c.out, "\nEnter command (1-5): ")

		if !c.scanner.Scan() {
			return
		}

		switch strings.TrimSpace(c.scanner.Text()) {
		case "1":
			c.viewAll(ctx)
		case "2":
			c.viewByAnswer(ctx)
		case "3":
			c.viewTally(ctx)
		case "4":
			c.sendTest(ctx)
		case "5":
			fmt.Fprintln(c.out, "Closing console. The server keeps running.")
			return
		default:
			fmt.Fprintln(c.out, "Invalid command. Please try again.")
		}
	}
}

func (c *Console) viewAll(ctx context.Context) {
	records, err := c.source.List(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error reading responses: %v\n", err)
		return
	}
	if len(records) == 0 {
		fmt.Fprintln(c.out, "\nNo responses yet.")
		return
	}

	fmt.Fprintf(c.out, "\n📋 All Responses (%d total):\n", len(records))
	c.printRecords(records, true)
}

func (c *Console) viewByAnswer(ctx context.Context) {
	fmt.Fprintln(c.out, "\nSelect answer:")
	fmt.Fprintln(c.out, "  1. Attending")
	fmt.Fprintln(c.out, "  2. Declined")
	fmt.Fprint(c.out, "Enter choice (1-2): ")

	if !c.scanner.Scan() {
		return
	}

	var answer models.Attendance
	switch strings.TrimSpace(c.scanner.Text()) {
	case "1":
		answer = models.AttendanceYes
	case "2":
		answer = models.AttendanceNo
	default:
		fmt.Fprintln(c.out, "Invalid choice.")
		return
	}

	records, err := c.source.List(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error reading responses: %v\n", err)
		return
	}

	var matched []models.RSVP
	for _, r := range records {
		if models.AttendanceOf(r.Attending) == answer {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		fmt.Fprintf(c.out, "\nNo responses with answer '%s'.\n", answer)
		return
	}

	fmt.Fprintf(c.out, "\n📋 Responses with answer '%s' (%d total):\n", answer, len(matched))
	c.printRecords(matched, false)
}

func (c *Console) viewTally(ctx context.Context) {
	t, _, err := tally.Load(ctx, c.source)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error reading responses: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "\n✅ Attending: %d\n❌ Declined: %d\n📋 Total: %d\n", t.Attending, t.Declined, t.Total)
}

func (c *Console) sendTest(ctx context.Context) {
	if c.tester == nil {
		fmt.Fprintln(c.out, "No notification channels configured.")
		return
	}
	if err := c.tester.SendTest(ctx); err != nil {
		fmt.Fprintf(c.out, "❌ Error sending test notification: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "✅ Test notification sent!")
}

func (c *Console) printRecords(records []models.RSVP, withAnswer bool) {
	fmt.Fprintln(c.out, strings.Repeat("-", 60))
	for _, r := range records {
		fmt.Fprintf(c.out, "Name: %s\n", r.Name)
		fmt.Fprintf(c.out, "Phone: %s\n", r.Phone)
		if withAnswer {
			fmt.Fprintf(c.out, "Answer: %s\n", models.AttendanceOf(r.Attending))
		}
		fmt.Fprintf(c.out, "Submitted: %s\n", r.CreatedAt.In(c.loc).Format("2006-01-02 15:04:05"))
		fmt.Fprintln(c.out, strings.Repeat("-", 60))
	}
}
