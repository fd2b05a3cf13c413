package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"
	texttemplate "text/template"
	"time"

	"bmasia/internal/config"
	"bmasia/internal/domain"
)

// ChannelEmail is the notification channel name of EmailService
const ChannelEmail = "email"

// SendFunc delivers a fully rendered message to a single recipient
type SendFunc func(ctx context.Context, from, to string, msg []byte) error

// EmailService sends staff notification emails for new submissions
type EmailService struct {
	cfg  *config.EmailConfig
	send SendFunc
	now  func() time.Time
}

// NewEmailService creates a new email service that delivers over SMTP
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	s := &EmailService{cfg: cfg, now: time.Now}
	s.send = s.sendSMTP
	return s
}

// NewEmailServiceWithSender creates an email service with a custom delivery function
func NewEmailServiceWithSender(cfg *config.EmailConfig, send SendFunc) *EmailService {
	return &EmailService{cfg: cfg, send: send, now: time.Now}
}

// Channel implements Notifier
func (s *EmailService) Channel() string {
	return ChannelEmail
}

// IsEnabled returns whether email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.cfg.Enabled
}

// NotifyInquiry emails the inquiry to the notification inbox
func (s *EmailService) NotifyInquiry(ctx context.Context, inquiry *domain.Inquiry) error {
	subject := fmt.Sprintf("New Inquiry from %s - %s", inquiry.Name, inquiry.Company)
	htmlBody, textBody, err := renderEmail(inquiryHTML, inquiryText, inquiry)
	if err != nil {
		return err
	}
	return s.SendHTMLEmail(ctx, s.cfg.NotificationEmail, subject, htmlBody, textBody)
}

// NotifyQuotation emails the quotation request to the notification inbox
func (s *EmailService) NotifyQuotation(ctx context.Context, quotation *domain.Quotation) error {
	subject := fmt.Sprintf("New Quotation Request from %s - %s", quotation.FullName(), quotation.CompanyName)
	view := quotationView{Quotation: quotation, SolutionLabel: domain.SolutionLabel(quotation.PreferredSolution)}
	htmlBody, textBody, err := renderEmail(quotationHTML, quotationText, view)
	if err != nil {
		return err
	}
	return s.SendHTMLEmail(ctx, s.cfg.NotificationEmail, subject, htmlBody, textBody)
}

// SendHTMLEmail sends an HTML email with plain text fallback
func (s *EmailService) SendHTMLEmail(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if !s.IsEnabled() {
		log.Printf("[EMAIL] Would send to %s: %s", to, subject)
		return nil
	}

	if to == "" {
		return fmt.Errorf("no notification recipient configured")
	}

	msg, err := s.buildMessage(to, subject, htmlBody, textBody)
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}

	if err := s.send(ctx, s.cfg.FromEmail, to, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) buildMessage(to, subject, htmlBody, textBody string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	from := (&mail.Address{Name: s.cfg.FromName, Address: s.cfg.FromEmail}).String()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	if err := writeQPPart(mw, "text/plain; charset=UTF-8", textBody); err != nil {
		return nil, err
	}
	if htmlBody != "" {
		if err := writeQPPart(mw, "text/html; charset=UTF-8", htmlBody); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

func writeQPPart(mw *multipart.Writer, contentType, content string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType)
	header.Set("Content-Transfer-Encoding", "quoted-printable")
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(content)); err != nil {
		return err
	}
	return qp.Close()
}

// sendSMTP delivers msg over SMTP, upgrading to TLS when the server offers STARTTLS
func (s *EmailService) sendSMTP(ctx context.Context, from, to string, msg []byte) error {
	if s.cfg.SMTPHost == "" || s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("email service not properly configured")
	}

	addr := net.JoinHostPort(s.cfg.SMTPHost, fmt.Sprintf("%d", s.cfg.SMTPPort))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost}); err != nil {
			return err
		}
	}
	if ok, _ := client.Extension("AUTH"); ok {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

type quotationView struct {
	*domain.Quotation
	SolutionLabel string
}

func renderEmail(htmlTmpl *template.Template, textTmpl *texttemplate.Template, data any) (string, string, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to render email html: %w", err)
	}
	if err := textTmpl.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to render email text: %w", err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

var emailFuncs = template.FuncMap{
	// multiline escapes s and keeps its line breaks
	"multiline": func(s string) template.HTML {
		return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
	},
}

var inquiryHTML = template.Must(template.New("inquiry").Funcs(emailFuncs).Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #0f0f0f 0%, #1a1a2e 100%); padding: 30px; border-radius: 10px 10px 0 0;">
    <h1 style="color: #EFA634; margin: 0; font-size: 24px;">New Music Inquiry</h1>
  </div>
  <div style="background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px;">
    <h2 style="color: #1a1a2e; margin-top: 0;">Contact Details</h2>
    <table style="width: 100%; border-collapse: collapse;">
      <tr>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee; font-weight: bold; width: 120px;">Name:</td>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee;">{{.Name}}</td>
      </tr>
      <tr>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee; font-weight: bold;">Company:</td>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee;">{{.Company}}</td>
      </tr>
      <tr>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee; font-weight: bold;">Email:</td>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee;">
          <a href="mailto:{{.Email}}" style="color: #EFA634;">{{.Email}}</a>
        </td>
      </tr>
    </table>

    <h2 style="color: #1a1a2e; margin-top: 30px;">Message</h2>
    <div style="background: #fff; padding: 20px; border-radius: 8px; border: 1px solid #eee;">
      {{multiline .Message}}
    </div>

    <p style="color: #666; font-size: 12px; margin-top: 30px; text-align: center;">
      This email was sent from the BMAsia website contact form.
    </p>
  </div>
</div>
`))

var inquiryText = texttemplate.Must(texttemplate.New("inquiry").Parse(`New Music Inquiry

Name: {{.Name}}
Company: {{.Company}}
Email: {{.Email}}

Message:
{{.Message}}

---
Sent from BMAsia website contact form
`))

var quotationHTML = template.Must(template.New("quotation").Funcs(emailFuncs).Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #0f0f0f 0%, #1a1a2e 100%); padding: 30px; border-radius: 10px 10px 0 0;">
    <h1 style="color: #EFA634; margin: 0; font-size: 24px;">New Quotation Request</h1>
  </div>
  <div style="background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px;">
    <h2 style="color: #1a1a2e; margin-top: 0;">Contact Details</h2>
    <table style="width: 100%; border-collapse: collapse;">
      <tr>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee; font-weight: bold; width: 140px;">Name:</td>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee;">{{.FirstName}} {{.LastName}}</td>
      </tr>
      <tr>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee; font-weight: bold;">Email:</td>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee;">
          <a href="mailto:{{.Email}}" style="color: #EFA634;">{{.Email}}</a>
        </td>
      </tr>
      <tr>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee; font-weight: bold;">Country:</td>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee;">{{.Country}}</td>
      </tr>
    </table>

    <h2 style="color: #1a1a2e; margin-top: 30px;">Company Information</h2>
    <table style="width: 100%; border-collapse: collapse;">
      <tr>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee; font-weight: bold; width: 140px;">Company Name:</td>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee;">{{.CompanyName}}</td>
      </tr>
      <tr>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee; font-weight: bold; vertical-align: top;">Address:</td>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee;">{{multiline .CompanyAddress}}</td>
      </tr>
    </table>

    <h2 style="color: #1a1a2e; margin-top: 30px;">Requirements</h2>
    <table style="width: 100%; border-collapse: collapse;">
      <tr>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee; font-weight: bold; width: 140px;">Solution:</td>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee;">
          <span style="background: #EFA634; color: white; padding: 4px 12px; border-radius: 4px;">{{.SolutionLabel}}</span>
        </td>
      </tr>
      <tr>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee; font-weight: bold;">Number of Zones:</td>
        <td style="padding: 10px 0; border-bottom: 1px solid #eee;">{{.NumberOfZones}}</td>
      </tr>
    </table>

    <p style="color: #666; font-size: 12px; margin-top: 30px; text-align: center;">
      This email was sent from the BMAsia website quotation form.
    </p>
  </div>
</div>
`))

var quotationText = texttemplate.Must(texttemplate.New("quotation").Parse(`New Quotation Request

Contact Details:
- Name: {{.FirstName}} {{.LastName}}
- Email: {{.Email}}
- Country: {{.Country}}

Company Information:
- Company Name: {{.CompanyName}}
- Address: {{.CompanyAddress}}

Requirements:
- Preferred Solution: {{.SolutionLabel}}
- Number of Zones: {{.NumberOfZones}}

---
Sent from BMAsia website quotation form
`))
