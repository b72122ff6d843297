package managers

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/hackdesk/hackdesk/internal/config"
	"github.com/hackdesk/hackdesk/internal/core"
)

type MailManager struct {
	cfg config.SMTP
}

func NewMailManager(c *core.Core) (*MailManager, error) {
	if c.Config.SMTP == nil {
		return nil, fmt.Errorf("smtp is not configured")
	}
	return &MailManager{cfg: *c.Config.SMTP}, nil
}

// SendMail delivers a plain text message to given address.
func (m *MailManager) SendMail(to, subject, body string) error {
	password, err := m.cfg.Password.GetValue()
	if err != nil {
		return err
	}
	from := m.cfg.Email
	if len(m.cfg.Name) > 0 {
		from = fmt.Sprintf(
			"%s <%s>",
			mime.QEncoding.Encode("utf-8", m.cfg.Name),
			m.cfg.Email,
		)
	}
	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", to))
	message.WriteString(fmt.Sprintf(
		"Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject),
	))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)
	auth := smtp.PlainAuth("", m.cfg.Email, password, m.cfg.Host)
	address := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	return smtp.SendMail(address, auth, m.cfg.Email, []string{to}, []byte(message.String()))
}
