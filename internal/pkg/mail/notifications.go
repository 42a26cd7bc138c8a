package mail

import (
	"fmt"
	"html"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/tutorsite/app/models"
)

// Notifier sends the site's transactional notifications. Delivery is best
// effort: failures are logged and never returned to the request.
type Notifier struct {
	mailer     Mailer
	adminEmail string
}

func NewNotifier(m Mailer, adminEmail string) *Notifier {
	if m == nil {
		m = NoopMailer{}
	}
	return &Notifier{mailer: m, adminEmail: strings.TrimSpace(adminEmail)}
}

// NewMessage tells the admin about a contact or intro session message.
func (n *Notifier) NewMessage(msg *models.Message) {
	if n == nil || n.adminEmail == "" || msg == nil {
		return
	}
	subject := "New contact message"
	if msg.Type == models.MESSAGE_TYPE_INTRO_SESSION {
		subject = "New intro session request"
	}
	var b strings.Builder
	b.WriteString("<h2>" + html.EscapeString(subject) + "</h2><ul>")
	row(&b, "Name", msg.Name)
	row(&b, "Email", msg.Email)
	row(&b, "Country", msg.Country)
	row(&b, "Level", msg.Level)
	row(&b, "Exam board", msg.ExamBoard)
	b.WriteString("</ul>")
	if msg.Message != "" {
		b.WriteString("<p>" + html.EscapeString(msg.Message) + "</p>")
	}
	n.send(n.adminEmail, subject, b.String())
}

// EnrollmentRequested tells the admin a seat was requested.
func (n *Notifier) EnrollmentRequested(class *models.Class, enrollment *models.ClassEnrollment, email string) {
	if n == nil || n.adminEmail == "" || class == nil || enrollment == nil {
		return
	}
	subject := fmt.Sprintf("Enrollment request: %s", class.Title)
	var b strings.Builder
	b.WriteString("<h2>New enrollment request</h2><ul>")
	row(&b, "Class", class.Title)
	row(&b, "Student", email)
	row(&b, "Payment method", enrollment.PaymentMethod)
	b.WriteString("</ul>")
	n.send(n.adminEmail, subject, b.String())
}

// EnrollmentConfirmed tells the customer their seat is confirmed.
func (n *Notifier) EnrollmentConfirmed(class *models.Class, email string) {
	if n == nil || class == nil || email == "" {
		return
	}
	subject := fmt.Sprintf("Your place in %s is confirmed", class.Title)
	var b strings.Builder
	b.WriteString("<p>Your payment has been received and your place is confirmed.</p><ul>")
	row(&b, "Class", class.Title)
	row(&b, "Day", class.Day)
	row(&b, "Time (UK)", class.TimeUK)
	row(&b, "Time (Gulf)", class.TimeGulf)
	if class.ZoomLink != "" {
		row(&b, "Zoom", class.ZoomLink)
	}
	b.WriteString("</ul>")
	n.send(email, subject, b.String())
}

func (n *Notifier) send(to, subject, body string) {
	if err := n.mailer.Send(to, subject, body); err != nil {
		log.Warnf("mail: notification %q to %s failed: %v", subject, to, err)
	}
}

func row(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString("<li><strong>" + html.EscapeString(label) + ":</strong> " + html.EscapeString(value) + "</li>")
}
