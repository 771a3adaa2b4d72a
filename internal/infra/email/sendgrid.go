// Package email delivers reminders through SendGrid.
package email

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"class_schedule_bot/internal/domain/notification"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
)

// Channel sends each reminder as a plain text email.
type Channel struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

var _ notification.Channel = (*Channel)(nil)

func NewChannel(key, fromName, fromEmail string) *Channel {
	return &Channel{
		key:        key,
		host:       defaultHost,
		from:       sgmail.NewEmail(fromName, fromEmail),
		subjPrefix: "[" + fromName + "] ",
	}
}

func (ch *Channel) Kind() notification.ChannelKind { return notification.ChannelEmail }

func (ch *Channel) Send(ctx context.Context, address, text string) error {
	to, err := mail.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("invalid email address %q: %w", address, err)
	}

	req := sendgrid.GetRequest(ch.key, endpoint, ch.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(ch.prepare(to, text))

	res, err := rest.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected message to %s: status %d: %s", to.Address, res.StatusCode, strings.TrimSpace(res.Body))
	}
	return nil
}

func (ch *Channel) prepare(to *mail.Address, text string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = ch.subjPrefix + subjectOf(text)
	p.AddTos(sgmail.NewEmail(to.Name, to.Address))

	m := sgmail.NewV3Mail()
	m.SetFrom(ch.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", text))
	return m
}

// subjectOf uses the reminder up to the lesson title.
func subjectOf(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	if head, _, ok := strings.Cut(line, " starts "); ok {
		return head
	}
	return line
}
