// Package dashboard renders the read-only admin view of all responses.
package dashboard

import (
	_ "embed"
	"html/template"
	"io"
	"time"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/tally"
)

//go:embed dashboard.html
var dashboardHTML string

var page = template.Must(template.New("dashboard").Parse(dashboardHTML))

// Row is one guest line in a table.
type Row struct {
	Name        string
	Phone       string
	SubmittedAt string
}

// View is everything the template needs. It holds no behaviour.
type View struct {
	Event       models.Event
	Tally       tally.Tally
	Attending   []Row
	Declined    []Row
	GeneratedAt string
}

// NewView partitions records into attending and declined rows, keeping
// their order.
func NewView(records []models.RSVP, event models.Event, loc *time.Location, now time.Time) View {
	v := View{
		Event:       event,
		Tally:       tally.Of(records),
		Attending:   make([]Row, 0),
		Declined:    make([]Row, 0),
		GeneratedAt: now.In(loc).Format(timeLayout),
	}
	for _, r := range records {
		row := Row{Name: r.Name, Phone: r.Phone, SubmittedAt: r.CreatedAt.In(loc).Format(timeLayout)}
		if r.Attending {
			v.Attending = append(v.Attending, row)
		} else {
			v.Declined = append(v.Declined, row)
		}
	}
	return v
}

const timeLayout = "Jan 2, 2006 3:04 PM"

type Renderer struct {
	event models.Event
	loc   *time.Location
	now   func() time.Time
}

func NewRenderer(event models.Event, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{event: event, loc: loc, now: time.Now}
}

// Render writes the HTML dashboard for records.
func (r *Renderer) Render(w io.Writer, records []models.RSVP) error {
	return page.Execute(w, NewView(records, r.event, r.loc, r.now()))
}
