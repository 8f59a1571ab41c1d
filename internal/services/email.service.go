package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"hostly/config"
	"hostly/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	ErrEmailRejected    = errors.New("email provider rejected the message")
	ErrMissingRecipient = errors.New("recipient email is required")
)

const sendGridMessageIDHeader = "X-Message-Id"

type EmailMessage struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// EmailSender delivers one message and returns the provider message id.
type EmailSender interface {
	Send(ctx context.Context, message EmailMessage) (string, error)
}

type sendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	log    logger.Logger
}

func NewSendGridSender(apiKey, fromAddress, fromName string) EmailSender {
	return &sendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
		log:    logger.New("sendGridSender"),
	}
}

func (s *sendGridSender) Send(ctx context.Context, message EmailMessage) (string, error) {
	log := s.log.Function("Send")

	to := mail.NewEmail(message.ToName, message.ToEmail)
	payload := mail.NewSingleEmail(s.from, message.Subject, to, message.PlainText, message.HTML)

	response, err := s.client.SendWithContext(ctx, payload)
	if err != nil {
		return "", log.Err("failed to send email", err, "to", message.ToEmail)
	}

	if response.StatusCode >= 300 {
		log.Warn(
			"email provider rejected message",
			"to", message.ToEmail,
			"status", response.StatusCode,
			"body", response.Body,
		)
		return "", fmt.Errorf("%w: status %d", ErrEmailRejected, response.StatusCode)
	}

	var messageID string
	if ids := response.Headers[sendGridMessageIDHeader]; len(ids) > 0 {
		messageID = ids[0]
	}
	return messageID, nil
}

// logSender stands in for the provider when no API key is configured.
type logSender struct {
	log logger.Logger
}

func (s *logSender) Send(ctx context.Context, message EmailMessage) (string, error) {
	s.log.Function("Send").Info(
		"email delivery disabled, message logged only",
		"to", message.ToEmail,
		"subject", message.Subject,
	)
	return "", nil
}

type EmailService struct {
	sender EmailSender
	log    logger.Logger
}

func NewEmailService(cfg config.Config) *EmailService {
	log := logger.New("EmailService")

	var sender EmailSender
	if cfg.SendGridAPIKey != "" && cfg.EmailFromAddress != "" {
		sender = NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFromAddress, cfg.EmailFromName)
	} else {
		log.Function("NewEmailService").Warn("SendGrid not configured, emails will only be logged")
		sender = &logSender{log: log}
	}

	return NewEmailServiceWithSender(sender)
}

func NewEmailServiceWithSender(sender EmailSender) *EmailService {
	return &EmailService{
		sender: sender,
		log:    logger.New("EmailService"),
	}
}

type CleaningEmail struct {
	Cleaning    *models.Cleaning
	Property    *models.Property
	Booking     *models.Booking
	NextBooking *models.Booking
	Recipient   string
	HostName    string
}

type cleaningTemplateData struct {
	CleanerName   string
	PropertyName  string
	Address       string
	Date          string
	CheckOutTime  string
	CheckInTime   string
	GuestName     string
	NumGuests     int
	NextCheckIn   string
	NextNumGuests int
	Notes         string
	HostName      string
}

// SendCleaningSchedule renders and sends the cleaning notice. It returns the
// subject used so the caller can log the attempt either way.
func (s *EmailService) SendCleaningSchedule(ctx context.Context, email CleaningEmail) (string, string, error) {
	log := s.log.Function("SendCleaningSchedule")

	if strings.TrimSpace(email.Recipient) == "" {
		return "", "", ErrMissingRecipient
	}

	data := cleaningTemplateData{
		CleanerName:  email.Cleaning.CleanerName,
		PropertyName: email.Property.Name,
		Address:      joinNonEmpty(", ", email.Property.Address, email.Property.City, email.Property.Country),
		Date:         email.Cleaning.ScheduledDate.Format("Monday, January 2, 2006"),
		CheckOutTime: email.Property.CheckOutTime,
		CheckInTime:  email.Property.CheckInTime,
		Notes:        email.Cleaning.Notes,
		HostName:     email.HostName,
	}
	if data.CleanerName == "" {
		data.CleanerName = email.Property.CleanerName
	}
	if email.Booking != nil {
		data.GuestName = email.Booking.GuestName
		data.NumGuests = email.Booking.NumGuests
	}
	if email.NextBooking != nil {
		data.NextCheckIn = email.NextBooking.CheckIn.Format("Monday, January 2")
		data.NextNumGuests = email.NextBooking.NumGuests
	}

	subject := fmt.Sprintf("Cleaning scheduled: %s on %s", data.PropertyName, email.Cleaning.ScheduledDate.Format("Jan 2"))

	html, err := render(cleaningTemplate, data)
	if err != nil {
		return "", subject, log.Err("failed to render cleaning email", err, "cleaningID", email.Cleaning.ID)
	}

	plain := cleaningPlainText(data)

	messageID, err := s.sender.Send(ctx, EmailMessage{
		ToEmail:   email.Recipient,
		ToName:    data.CleanerName,
		Subject:   subject,
		PlainText: plain,
		HTML:      html,
	})
	if err != nil {
		return "", subject, err
	}

	log.Info("cleaning email sent", "cleaningID", email.Cleaning.ID, "messageID", messageID)
	return messageID, subject, nil
}

type guestTemplateData struct {
	GuestName    string
	PropertyName string
	CheckIn      string
	CheckOut     string
	Paragraphs   []string
}

func (s *EmailService) SendGuestMessage(
	ctx context.Context,
	booking *models.Booking,
	property *models.Property,
	subject, message string,
) (string, error) {
	log := s.log.Function("SendGuestMessage")

	if strings.TrimSpace(booking.GuestEmail) == "" {
		return "", ErrMissingRecipient
	}

	data := guestTemplateData{
		GuestName:  booking.GuestName,
		CheckIn:    booking.CheckIn.Format(time.DateOnly),
		CheckOut:   booking.CheckOut.Format(time.DateOnly),
		Paragraphs: splitParagraphs(message),
	}
	if property != nil {
		data.PropertyName = property.Name
	}

	html, err := render(guestTemplate, data)
	if err != nil {
		return "", log.Err("failed to render guest email", err, "bookingID", booking.ID)
	}

	messageID, err := s.sender.Send(ctx, EmailMessage{
		ToEmail:   booking.GuestEmail,
		ToName:    booking.GuestName,
		Subject:   subject,
		PlainText: message,
		HTML:      html,
	})
	if err != nil {
		return "", err
	}

	log.Info("guest email sent", "bookingID", booking.ID, "messageID", messageID)
	return messageID, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func cleaningPlainText(data cleaningTemplateData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", orDefault(data.CleanerName, "there"))
	fmt.Fprintf(&b, "A cleaning is scheduled at %s on %s.\n", data.PropertyName, data.Date)
	if data.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", data.Address)
	}
	fmt.Fprintf(&b, "Guest checkout: %s\n", data.CheckOutTime)
	if data.NextCheckIn != "" {
		fmt.Fprintf(&b, "Next check-in: %s at %s (%d guests)\n", data.NextCheckIn, data.CheckInTime, data.NextNumGuests)
	}
	if data.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", data.Notes)
	}
	if data.HostName != "" {
		fmt.Fprintf(&b, "\nThanks,\n%s\n", data.HostName)
	}
	return b.String()
}

func splitParagraphs(message string) []string {
	var paragraphs []string
	for _, p := range strings.Split(strings.ReplaceAll(message, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

var cleaningTemplate = template.Must(template.New("cleaning").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <p>Hi {{if .CleanerName}}{{.CleanerName}}{{else}}there{{end}},</p>
  <p>A cleaning is scheduled at <strong>{{.PropertyName}}</strong> on <strong>{{.Date}}</strong>.</p>
  <table cellpadding="4">
    {{if .Address}}<tr><td>Address</td><td>{{.Address}}</td></tr>{{end}}
    <tr><td>Guest checkout</td><td>{{.CheckOutTime}}</td></tr>
    {{if .GuestName}}<tr><td>Departing guest</td><td>{{.GuestName}} ({{.NumGuests}} guests)</td></tr>{{end}}
    {{if .NextCheckIn}}<tr><td>Next check-in</td><td>{{.NextCheckIn}} at {{.CheckInTime}} ({{.NextNumGuests}} guests)</td></tr>{{end}}
  </table>
  {{if .Notes}}<p><strong>Notes:</strong> {{.Notes}}</p>{{end}}
  {{if .HostName}}<p>Thanks,<br>{{.HostName}}</p>{{end}}
</body>
</html>`))

var guestTemplate = template.Must(template.New("guest").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <p>Hi {{.GuestName}},</p>
  {{range .Paragraphs}}<p>{{.}}</p>
  {{end}}
  {{if .PropertyName}}<p style="color: #6b7280; font-size: 12px;">{{.PropertyName}} &middot; {{.CheckIn}} to {{.CheckOut}}</p>{{end}}
</body>
</html>`))
