package notify

import (
	"bytes"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/opscheck/internal/errs"
)

// EmailSender delivers generated reports over SMTP. Delivery is one shot;
// failures are reported back, never retried here.
type EmailSender struct {
	dialer *gomail.Dialer
	from   string
}

type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	From     string
	Password string
}

func NewEmailSender(cfg EmailConfig) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.From, cfg.Password),
		from:   cfg.From,
	}
}

// SendReport mails the report body to the recipients, attaching the
// exported byte stream when one is given.
func (s *EmailSender) SendReport(to []string, subject, body string, attachment []byte, filename, contentType string) error {
	if len(to) == 0 {
		return errs.Validation("recipients", "at least one recipient is required")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if len(attachment) > 0 {
		m.Attach(filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, bytes.NewReader(attachment))
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {contentType}}),
		)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return errs.External("email", err)
	}
	return nil
}
