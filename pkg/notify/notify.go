// Package notify sends batch run summary emails using Resend.
package notify

import (
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/FACorreiaa/invoice-runner/pkg/money"
)

// Notifier delivers run summaries by email. A Notifier without an API key
// or recipients is valid and silently skips sending, so callers never need
// to guard for a missing mail configuration.
type Notifier struct {
	client *resend.Client
	logger *slog.Logger
	from   string
	to     []string
}

// NewNotifier creates a notifier. An empty apiKey leaves the client nil.
func NewNotifier(apiKey, from string, to []string, logger *slog.Logger) *Notifier {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{
		client: client,
		logger: logger,
		from:   from,
		to:     to,
	}
}

// Enabled reports whether the notifier can actually send email.
func (n *Notifier) Enabled() bool {
	return n != nil && n.client != nil && len(n.to) > 0
}

// InvoiceTotal is one per-invoice amount rendered into the summary email.
type InvoiceTotal struct {
	InvoiceID string
	Amount    *money.Money
}

// RunSummary carries the fields rendered into the summary email.
type RunSummary struct {
	RunID          string
	Version        string
	FinishedAt     time.Time
	Duration       time.Duration
	Files          int
	FedExFiles     int
	LightningFiles int
	OtherFiles     int
	Rows           int
	Totals         []InvoiceTotal
	Errors         []string
}

// SendRunSummary emails the summary to all configured recipients.
func (n *Notifier) SendRunSummary(summary RunSummary) error {
	if !n.Enabled() {
		n.logger.Warn("resend client not configured, skipping run summary email")
		return nil
	}

	subject := fmt.Sprintf("Invoice batch complete: %d rows from %d files", summary.Rows, summary.Files)
	if len(summary.Errors) > 0 {
		subject += fmt.Sprintf(" (%d errors)", len(summary.Errors))
	}

	_, err := n.client.Emails.Send(&resend.SendEmailRequest{
		From:    n.from,
		To:      n.to,
		Subject: subject,
		Html:    renderRunSummary(summary),
	})
	return err
}

// renderRunSummary builds the HTML body for the summary email.
func renderRunSummary(s RunSummary) string {
	var totals strings.Builder
	for _, t := range s.Totals {
		totals.WriteString(fmt.Sprintf(
			`<tr><td class="cell">%s</td><td class="cell amount">%s</td></tr>`,
			html.EscapeString(t.InvoiceID), t.Amount.Display()))
	}

	var errs strings.Builder
	if len(s.Errors) > 0 {
		errs.WriteString(`<div class="errors"><p class="label">ERRORS</p><ul>`)
		for _, e := range s.Errors {
			errs.WriteString("<li>" + html.EscapeString(e) + "</li>")
		}
		errs.WriteString("</ul></div>")
	}

	footer := fmt.Sprintf("Run %s &middot; finished %s",
		html.EscapeString(s.RunID), s.FinishedAt.Format(time.RFC1123))
	if s.Version != "" {
		footer = html.EscapeString(s.Version) + " &middot; " + footer
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
  <style>
    body { background-color: #f6f7f9; font-family: 'Helvetica Neue', Arial, sans-serif; margin: 0; padding: 40px 0; }
    .container { background-color: #ffffff; border: 1px solid #e3e5e8; border-radius: 12px; padding: 40px; max-width: 560px; margin: 0 auto; }
    .topLabel { color: #2da6fa; font-size: 12px; font-weight: 700; letter-spacing: 2px; text-align: center; }
    h1 { color: #1a1a1c; font-size: 26px; font-weight: 800; text-align: center; margin: 20px 0; }
    .stats { background: #f6f7f9; border-radius: 8px; padding: 20px; margin: 20px 0; }
    .label { color: #6b7075; font-size: 10px; font-weight: 700; letter-spacing: 1px; }
    .stat { color: #1a1a1c; font-size: 15px; margin: 6px 0; }
    table { width: 100%%; border-collapse: collapse; margin: 10px 0; }
    .cell { border-bottom: 1px solid #e3e5e8; color: #1a1a1c; font-size: 14px; padding: 6px 4px; }
    .amount { text-align: right; }
    .errors { background: #fdf2f2; border-radius: 8px; padding: 12px 20px; margin: 20px 0; }
    .errors li { color: #8a3333; font-size: 13px; }
    .footer { color: #9aa0a6; font-size: 12px; text-align: center; margin-top: 30px; }
  </style>
</head>
<body>
  <div class="container">
    <p class="topLabel">BATCH COMPLETE</p>
    <h1>Invoice run finished.</h1>
    <div class="stats">
      <p class="label">FILES</p>
      <p class="stat">%d processed &mdash; FedEx: %d, Lightning: %d, Other: %d</p>
      <p class="label">ROWS</p>
      <p class="stat">%d extracted in %s</p>
    </div>
    <p class="label">TOTALS PER INVOICE</p>
    <table>%s</table>
    %s
    <p class="footer">%s</p>
  </div>
</body>
</html>
`,
		s.Files, s.FedExFiles, s.LightningFiles, s.OtherFiles,
		s.Rows, s.Duration.Round(time.Millisecond),
		totals.String(),
		errs.String(),
		footer,
	)
}
