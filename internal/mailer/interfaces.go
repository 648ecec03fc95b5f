package mailer

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendGuideLink(email, guestName, propertyName, link string) error
	SendReaccessCode(email, code, link string) error
}
