package mailer

import (
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/pkg/config"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Message is a single outbound email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	Body      string
}

// Mailer delivers messages. Implementations must never block the caller on
// delivery outcome; failures are logged, not returned.
type Mailer interface {
	Send(msg Message)
}

// SendgridMailer delivers mail through the SendGrid v3 API.
type SendgridMailer struct {
	key    string
	from   *sgmail.Email
	logger *zap.Logger
}

// NewSendgrid constructs a SendGrid-backed mailer.
func NewSendgrid(cfg config.MailConfig, logger *zap.Logger) *SendgridMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendgridMailer{
		key:    cfg.SendgridAPIKey,
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		logger: logger,
	}
}

// Send delivers the message asynchronously. Delivery failure is logged and
// never propagated to the caller.
func (m *SendgridMailer) Send(msg Message) {
	go func() {
		if msg.ToAddress == "" || msg.Body == "" {
			return
		}
		m.send(msg)
	}()
}

func (m *SendgridMailer) send(msg Message) {
	to := sgmail.NewEmail(msg.ToName, msg.ToAddress)
	content := sgmail.NewContent("text/plain", msg.Body)

	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(to)

	mail := sgmail.NewV3Mail()
	mail.SetFrom(m.from)
	mail.AddPersonalizations(p)
	mail.AddContent(content)

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(mail)

	res, err := sendgrid.API(req)
	if err != nil {
		m.logger.Error("sending email", zap.String("to", msg.ToAddress), zap.Error(err))
		return
	}
	if res.StatusCode >= http.StatusBadRequest {
		m.logger.Error("sending email", zap.String("to", msg.ToAddress),
			zap.Int("status", res.StatusCode), zap.String("body", res.Body))
	}
}

// NopMailer drops all messages. Used when no API key is configured.
type NopMailer struct {
	logger *zap.Logger
}

// NewNop constructs a mailer that logs instead of sending.
func NewNop(logger *zap.Logger) *NopMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NopMailer{logger: logger}
}

// Send logs the message at debug level and discards it.
func (m *NopMailer) Send(msg Message) {
	m.logger.Debug("mail delivery skipped",
		zap.String("to", msg.ToAddress),
		zap.String("subject", fmt.Sprintf("%.60s", msg.Subject)))
}
