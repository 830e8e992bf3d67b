package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"agency-platform/internal/inquiry"
)

// ResponseMailer builds and sends the customer-facing response email for a
// resolved inquiry. It implements inquiry.Notifier.
type ResponseMailer struct {
	sender Sender

	// AgencyName appears in the email subject line and signature.
	AgencyName string
}

func NewResponseMailer(sender Sender, agencyName string) *ResponseMailer {
	if agencyName == "" {
		agencyName = "Poppy Pie"
	}
	return &ResponseMailer{sender: sender, AgencyName: agencyName}
}

func (m *ResponseMailer) SendResponse(ctx context.Context, inq inquiry.Inquiry, responseText string) error {
	msg := Message{
		To:       inq.Email,
		Subject:  "Re: " + inq.Subject,
		HTMLBody: m.htmlBody(inq, responseText),
		TextBody: m.textBody(inq, responseText),
	}
	return m.sender.Send(ctx, msg)
}

func (m *ResponseMailer) htmlBody(inq inquiry.Inquiry, responseText string) string {
	response := strings.ReplaceAll(html.EscapeString(responseText), "\n", "<br>")
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #667eea; color: white; padding: 30px; border-radius: 8px; text-align: center; }
        .response { background: #e3f2fd; padding: 20px; border-radius: 6px; margin: 20px 0; border-left: 4px solid #2196f3; }
        .original { background: #f8f9fa; padding: 20px; border-radius: 6px; margin: 20px 0; }
        .footer { margin-top: 20px; padding: 20px; background: #f8f9fa; border-radius: 8px; font-size: 14px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Response from %s</h1>
            <p>Thank you for your inquiry. Here's our response:</p>
        </div>
        <p>Dear %s,</p>
        <div class="response">
            <h3>Our Response:</h3>
            <p>%s</p>
        </div>
        <div class="original">
            <h4>Your Original Inquiry:</h4>
            <p><strong>Subject:</strong> %s</p>
            <p><strong>Message:</strong> %s</p>
            <p><strong>Submitted:</strong> %s</p>
        </div>
        <p>If you have any follow-up questions, please don't hesitate to reach out to us.</p>
        <div class="footer">
            <p><strong>The %s Team</strong></p>
        </div>
    </div>
</body>
</html>`,
		html.EscapeString(m.AgencyName),
		html.EscapeString(inq.Name),
		response,
		html.EscapeString(inq.Subject),
		html.EscapeString(inq.Message),
		inq.CreatedAt.Format("January 2, 2006"),
		html.EscapeString(m.AgencyName),
	)
}

func (m *ResponseMailer) textBody(inq inquiry.Inquiry, responseText string) string {
	return fmt.Sprintf(`Dear %s,

Thank you for your inquiry. Here's our response:

%s

Your original inquiry:
Subject: %s
Message: %s
Submitted: %s

If you have any follow-up questions, please don't hesitate to reach out to us.

Best regards,
The %s Team`,
		inq.Name,
		responseText,
		inq.Subject,
		inq.Message,
		inq.CreatedAt.Format("January 2, 2006"),
		m.AgencyName,
	)
}
