package notify

import (
	"log/slog"
	"time"

	"github.com/civicpulse/pulse-backend/internal/config"
)

// FromConfig wires whichever channels have credentials. With none configured, notices
// are only logged by the dispatcher.
func FromConfig(cfg *config.Config) *Async {
	d := &Dispatcher{AdminPhone: cfg.AdminPhone, AdminEmail: cfg.AdminEmail}

	if cfg.TwilioAccountSID != "" {
		sms, err := NewTwilioSender(TwilioConfig{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			From:       cfg.TwilioFromNumber,
			BaseURL:    cfg.TwilioBaseURL,
		})
		if err != nil {
			slog.Warn("sms notifications disabled", "error", err)
		} else {
			d.SMS = sms
		}
	}

	if cfg.SendGridAPIKey != "" {
		d.Mail = NewSendGridMailer(cfg.SendGridAPIKey, cfg.NotifyFromName, cfg.NotifyFromEmail, cfg.SendGridSandbox)
	}

	slog.Info("notifications configured", "sms", d.SMS != nil, "email", d.Mail != nil)
	return NewAsync(d, 30*time.Second)
}
