package email

import (
	"fmt"

	"github.com/studynotion/backend/core/course"
	gomail "gopkg.in/gomail.v2"
)

// Links are the front-end URLs tokens get appended to.
type Links struct {
	ActivationURL string
	RecoveryURL   string
}

type Mailer struct {
	from   string
	dialer *gomail.Dialer
	links  Links
}

func New(address, password, host string, port int, links Links) *Mailer {
	return &Mailer{
		from:   address,
		dialer: gomail.NewDialer(host, port, address, password),
		links:  links,
	}
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

func (m *Mailer) SendActivationToken(to, token string) error {
	body := fmt.Sprintf(
		"Welcome to StudyNotion!\n\nActivate your account here: %s?token=%s\n",
		m.links.ActivationURL, token,
	)
	return m.send(to, "Activate your StudyNotion account", body)
}

func (m *Mailer) SendRecoveryToken(to, token string) error {
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\nReset it here: %s?token=%s\n\nIf this wasn't you, ignore this email.\n",
		m.links.RecoveryURL, token,
	)
	return m.send(to, "Reset your StudyNotion password", body)
}

// SendDecision tells the instructor the outcome of an admin review.
func (m *Mailer) SendDecision(to, courseName string, outcome course.ApprovalStatus, reason string) error {
	var body string
	switch outcome {
	case course.ApprovalApproved:
		body = fmt.Sprintf("Good news! Your course %q was approved and is now live.\n", courseName)
	case course.ApprovalRejected:
		body = fmt.Sprintf("Your course %q was rejected.\n\nReason: %s\n", courseName, reason)
	case course.ApprovalUnderReview:
		body = fmt.Sprintf("Your course %q needs changes before it can be approved.\n\nNotes: %s\n", courseName, reason)
	default:
		body = fmt.Sprintf("The review status of your course %q changed to %s.\n", courseName, outcome)
	}

	return m.send(to, fmt.Sprintf("Course review update: %s", courseName), body)
}
