package notify

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	texttemplate "text/template"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/tally"
)

//go:embed templates
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

type responseView struct {
	Event       models.Event
	Name        string
	Phone       string
	Attending   bool
	SubmittedAt string
	Tally       tally.Tally
}

// AttendanceText is the bilingual label for the answer.
func (v responseView) AttendanceText() string {
	if v.Attending {
		return "✅ Will Attend / سيحضر"
	}
	return "❌ Cannot Attend / لن يحضر"
}

type testView struct {
	Event  models.Event
	SentAt string
}

type digestView struct {
	Event          models.Event
	Tally          tally.Tally
	SentAt         string
	LastResponseAt string
}

func renderResponse(v responseView) (Message, error) {
	status := "Not Attending"
	if v.Attending {
		status = "Attending"
	}
	return render("response", "Wedding RSVP - "+v.Name+" - "+status, v)
}

func renderTest(v testView) (Message, error) {
	return render("test", "Wedding RSVP - Test notification / رسالة تجريبية", v)
}

func renderDigest(v digestView) (Message, error) {
	return render("digest", "Wedding RSVP - Daily summary / ملخص يومي", v)
}

func render(name, subject string, data any) (Message, error) {
	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Message{}, err
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Message{}, err
	}
	return Message{Subject: subject, HTML: html.String(), Text: text.String()}, nil
}
