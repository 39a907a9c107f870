// Package notify tells the submitter and the city admins that a new report arrived.
// Delivery is best-effort and never blocks or fails the submission.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ReportNotice is everything a message about a new report needs.
type ReportNotice struct {
	ReportID       string
	Title          string
	City           string
	Status         string
	Username       string
	SubmitterPhone string
}

func (n ReportNotice) summary() string {
	where := ""
	if n.City != "" {
		where = " in " + n.City
	}
	return fmt.Sprintf("%q%s (status: %s)", n.Title, where, n.Status)
}

type Notifier interface {
	ReportSubmitted(ctx context.Context, n ReportNotice)
}

// Async runs a Deliverer in the background with its own deadline, detached from the
// request that triggered it.
type Async struct {
	next    Deliverer
	timeout time.Duration
	wg      sync.WaitGroup
}

// Deliverer sends one notice synchronously.
type Deliverer interface {
	Deliver(ctx context.Context, n ReportNotice) error
}

func NewAsync(next Deliverer, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Async{next: next, timeout: timeout}
}

func (a *Async) ReportSubmitted(ctx context.Context, n ReportNotice) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		if err := a.next.Deliver(ctx, n); err != nil {
			slog.Warn("report notification failed", "report_id", n.ReportID, "error", err)
		}
	}()
}

// Wait blocks until in-flight deliveries finish. Used on shutdown.
func (a *Async) Wait() {
	a.wg.Wait()
}

// Discard drops every notice.
type Discard struct{}

func (Discard) ReportSubmitted(context.Context, ReportNotice) {}
