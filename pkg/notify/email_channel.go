package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/cuemby/beacon/pkg/alerts"
	"github.com/cuemby/beacon/pkg/errs"
)

// EmailChannel sends plain-text mail through an SMTP relay. No
// third-party SMTP client is wired anywhere in the corpus, so this is
// built directly on net/smtp rather than an unfounded dependency.
type EmailChannel struct {
	name     string
	addr     string // host:port of the SMTP relay
	auth     smtp.Auth
	from     string
	to       []string
}

func NewEmailChannel(name, addr, from string, to []string, auth smtp.Auth) *EmailChannel {
	return &EmailChannel{name: name, addr: addr, auth: auth, from: from, to: to}
}

func (c *EmailChannel) Name() string { return c.name }

func (c *EmailChannel) SendAlert(_ context.Context, alert *alerts.Alert, body string) error {
	return c.send(fmt.Sprintf("[ALERT] %s", alert.RuleName), body)
}

func (c *EmailChannel) SendResolution(_ context.Context, alert *alerts.Alert, body string) error {
	return c.send(fmt.Sprintf("[RESOLVED] %s", alert.RuleName), body)
}

func (c *EmailChannel) send(subject, body string) error {
	msg := fmt.Sprintf("Subject: %s\r\n\r\n%s\r\n", subject, body)
	if err := smtp.SendMail(c.addr, c.auth, c.from, c.to, []byte(msg)); err != nil {
		return errs.New(errs.Network, "notify.email.send", err)
	}
	return nil
}
