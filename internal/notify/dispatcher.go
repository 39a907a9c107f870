package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// Dispatcher fans a notice out to every configured channel. Nil senders and empty
// recipients are skipped.
type Dispatcher struct {
	SMS        SMSSender
	Mail       Mailer
	AdminPhone string
	AdminEmail string
}

func (d *Dispatcher) Deliver(ctx context.Context, n ReportNotice) error {
	// A plain Group, not WithContext: one channel failing must not cancel the others.
	// Wait only yields the first error, so every channel also keeps its own slot.
	var (
		g    errgroup.Group
		errs = make([]error, 3)
	)

	if d.SMS != nil && n.SubmitterPhone != "" {
		g.Go(func() error {
			body := fmt.Sprintf("Thanks %s! Your report %s was received.", n.Username, n.summary())
			errs[0] = wrap("submitter sms", d.SMS.SendSMS(ctx, n.SubmitterPhone, body))
			return errs[0]
		})
	}
	if d.SMS != nil && d.AdminPhone != "" {
		g.Go(func() error {
			body := fmt.Sprintf("New civic report from %s: %s", n.Username, n.summary())
			errs[1] = wrap("admin sms", d.SMS.SendSMS(ctx, d.AdminPhone, body))
			return errs[1]
		})
	}
	if d.Mail != nil && d.AdminEmail != "" {
		g.Go(func() error {
			subject := fmt.Sprintf("New report: %s", n.Title)
			body := fmt.Sprintf("A new report was submitted by %s.\n\nReport: %s\nID: %s\n", n.Username, n.summary(), n.ReportID)
			errs[2] = wrap("admin email", d.Mail.SendMail(ctx, d.AdminEmail, subject, body))
			return errs[2]
		})
	}

	if err := g.Wait(); err == nil {
		slog.Info("report notifications sent", "report_id", n.ReportID)
		return nil
	}
	return errors.Join(errs...)
}

func wrap(channel string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", channel, err)
}
