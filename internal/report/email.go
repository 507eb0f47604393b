package report

import (
	"crypto/tls"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"ledgerdash/internal/log"
)

// EmailSender delivers the report over SMTP with implicit TLS, the
// scheme Gmail exposes on port 465.
type EmailSender struct {
	Host     string
	Port     int
	From     string
	Password string
	logger   *log.Logger
}

func NewEmailSender(host string, port int, from, password string, logger *log.Logger) *EmailSender {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &EmailSender{
		Host:     host,
		Port:     port,
		From:     from,
		Password: password,
		logger:   logger.WithComponent(log.ComponentReport),
	}
}

// Send emails the summary to recipients, attaching the dashboard HTML
// when it is non-empty.
func (s *EmailSender) Send(subject string, summary Summary, viewLink string, dashboard []byte, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("send email: no recipients")
	}
	msg := buildMessage(s.From, recipients, subject, summary, viewLink, dashboard)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.Host})
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.From, s.Password, s.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(s.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	s.logger.Info("report email sent", log.FieldRecordCount, len(recipients))
	return client.Quit()
}

const boundary = "ledgerdash-report-part"

func buildMessage(from string, to []string, subject string, summary Summary, viewLink string, dashboard []byte) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(bodyText(summary, viewLink))
	b.WriteString("\r\n")

	if len(dashboard) > 0 {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
		b.WriteString("Content-Disposition: attachment; filename=\"dashboard.html\"\r\n\r\n")
		b.Write(dashboard)
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

func bodyText(s Summary, viewLink string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", s.Title)
	fmt.Fprintf(&b, "%s: %s across %d expenses\n", s.MonthName, s.TotalExpenses, s.ExpenseCount)
	fmt.Fprintf(&b, "Monthly average over %d months: %s\n", s.TotalMonths, s.MonthlyAvg)
	fmt.Fprintf(&b, "Trend vs average: %s\n", s.Trend.Label)
	if len(s.TopCategories) > 0 {
		b.WriteString("\nTop categories:\n")
		for _, c := range s.TopCategories {
			fmt.Fprintf(&b, "  %-20s %10s (%s)\n", c.Name, c.Amount, c.Trend.Label)
		}
	}
	if viewLink != "" {
		fmt.Fprintf(&b, "\nFull dashboard: %s\n", viewLink)
	}
	fmt.Fprintf(&b, "\nGenerated %s\n", s.ReportDate)
	return b.String()
}
