package mailer

import "github.com/staysuite/guestgate/pkg/logger"

// DevMailer prints emails to the log instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer { return &DevMailer{} }

func (m *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("dev mailer: send", "to", toEmail, "subject", subject, "text", text)
	return "dev", nil
}

func (m *DevMailer) SendGuideLink(email, guestName, propertyName, link string) error {
	logger.Info("dev mailer: guide link", "to", email, "property", propertyName, "link", link)
	return nil
}

func (m *DevMailer) SendReaccessCode(email, code, link string) error {
	logger.Info("dev mailer: re-access code", "to", email, "code", code, "link", link)
	return nil
}
