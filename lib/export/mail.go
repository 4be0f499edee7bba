package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"rapthor-backend/lib/orders"
	"rapthor-backend/lib/timezone"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MailBody summarizes a report in plain text.
func MailBody(report Report) string {
	var body strings.Builder
	fmt.Fprintf(&body, "Extraction RAPTHOR du %s\n\n", report.Date.In(timezone.Location).Format(orders.DateLayout))
	fmt.Fprintf(&body, "Commandes : %d\n", len(report.Orders))
	fmt.Fprintf(&body, "DESADV à faire : %d\n", len(report.DesadvPending))
	for _, o := range report.DesadvPending {
		fmt.Fprintf(&body, "  - %s %s (%s)\n", o.Number, o.Client, o.Amount.String())
	}
	fmt.Fprintf(&body, "Commandes de plus de %s € : %d\n", report.Threshold.String(), len(report.HighValueOrders))
	for _, o := range report.HighValueOrders {
		fmt.Fprintf(&body, "  - %s %s (%s)\n", o.Number, o.Client, o.Amount.String())
	}
	return body.String()
}

// NewReportMail builds the mail carrying `workbook` as an attachment.
func NewReportMail(from string, to []string, report Report, workbook []byte) (*email.Email, error) {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("RAPTHOR <%s>", from)
	mail.To = to
	mail.Subject = fmt.Sprintf("RAPTHOR - DESADV du %s", report.Date.In(timezone.Location).Format(orders.DateLayout))
	mail.Text = []byte(MailBody(report))

	_, err := mail.Attach(bytes.NewReader(workbook), ReportFilename(report.Date), xlsxContentType)
	if err != nil {
		return nil, err
	}
	return mail, nil
}

// SendReport mails the report to `to` through the configured SMTP server.
func SendReport(ctx context.Context, cfg SmtpConfig, to []string, report Report, workbook []byte) error {
	_, span := tracer.Start(ctx, "SendReport")
	defer span.End()

	if cfg.Server == "" || cfg.EmailAddress == "" {
		return errors.New("smtp server is not configured")
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	mail, err := NewReportMail(cfg.EmailAddress, to, report, workbook)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build mail")
		return err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server, cfg.Port)
	err = mail.Send(addr, smtp.PlainAuth("", cfg.EmailAddress, cfg.Password, cfg.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
