package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridClient is the slice of *sendgrid.Client the mailer uses.
type SendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridMailer struct {
	client      SendGridClient
	fromName    string
	fromAddress string
	sandbox     bool
}

func NewSendGridMailer(apiKey, fromName, fromAddress string, sandbox bool) *SendGridMailer {
	return NewSendGridMailerWithClient(sendgrid.NewSendClient(apiKey), fromName, fromAddress, sandbox)
}

func NewSendGridMailerWithClient(client SendGridClient, fromName, fromAddress string, sandbox bool) *SendGridMailer {
	return &SendGridMailer{client: client, fromName: fromName, fromAddress: fromAddress, sandbox: sandbox}
}

// SendMail sends a plain-text message. Sandbox mode validates without delivering.
func (m *SendGridMailer) SendMail(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(m.fromName, m.fromAddress)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), body, "")

	if m.sandbox {
		settings := mail.NewMailSettings()
		settings.SetSandboxMode(mail.NewSetting(true))
		message.SetMailSettings(settings)
	}

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
