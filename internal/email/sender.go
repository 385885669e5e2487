// Package email sends the classification report over SMTP.
package email

import (
	"fmt"
	"log"

	"github.com/wneessen/go-mail"

	"ticketbot/internal/config"
)

// Sender delivers the report as an attachment via the configured SMTP host.
type Sender struct {
	cfg config.Config
}

func NewSender(cfg config.Config) *Sender {
	return &Sender{cfg: cfg}
}

// SendReport mails the report at reportPath to the configured recipient.
func (s *Sender) SendReport(reportPath string, ticketCount int) error {
	cfg := s.cfg

	msg := mail.NewMsg()
	if err := msg.FromFormat(cfg.FromName, cfg.FromEmail); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(cfg.RecipientEmail); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(Subject(cfg.SenderName))
	msg.SetBodyString(mail.TypeTextPlain, BuildBody(ticketCount, cfg.CodebaseLink))
	msg.AttachFile(reportPath)

	tlsPolicy := mail.TLSMandatory
	if !cfg.UseTLS() {
		tlsPolicy = mail.NoTLS
	}

	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPUsername),
		mail.WithPassword(cfg.SMTPPassword),
		mail.WithTLSPolicy(tlsPolicy),
	)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}

	log.Printf("email send to=%s host=%s:%d", cfg.RecipientEmail, cfg.SMTPHost, cfg.SMTPPort)
	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	log.Printf("email sent to=%s", cfg.RecipientEmail)
	return nil
}

// Subject is the report email subject line.
func Subject(senderName string) string {
	return fmt.Sprintf("Ticket classification report - %s", senderName)
}

// BuildBody renders the plain-text report email body.
func BuildBody(ticketCount int, codebaseLink string) string {
	return fmt.Sprintf(`Hello,

Please find attached the automated ticket classification report.

Report Summary:
- Total tickets classified: %d
- Classification method: LLM-based analysis against IT Service Catalog
- Report format: Microsoft Excel (.xlsx)

The attached report contains all classified IT helpdesk requests sorted by:
1. Request Category (ascending)
2. Request Type (ascending)
3. Short Description (ascending)

Source Code Repository:
%s

This report was generated automatically by the Ticket Automation System.

Best regards,
Ticket Automation System
`, ticketCount, codebaseLink)
}
