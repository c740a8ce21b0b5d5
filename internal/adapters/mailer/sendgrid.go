package mailer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"hostel_hub/internal/adapters/observability"
	"hostel_hub/internal/domain"
)

const (
	DefaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
)

type SendGrid struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

func NewSendGrid(key, host, appName, fromEmail string) *SendGrid {
	if host == "" {
		host = DefaultHost
	}
	return &SendGrid{
		key:        key,
		host:       strings.TrimRight(host, "/"),
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (s *SendGrid) prepare(m domain.Mail) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + m.Subject
	p.AddTos(sgmail.NewEmail(m.ToName, m.To))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(s.from)
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/plain", m.Text))
	if m.HTML != "" {
		msg.AddContent(sgmail.NewContent("text/html", m.HTML))
	}
	return msg
}

func (s *SendGrid) Send(ctx context.Context, m domain.Mail) error {
	req := sendgrid.GetRequest(s.key, endpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(m))

	start := time.Now()
	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		observability.ObserveExternal("sendgrid", "mail_send", 0, time.Since(start))
		observability.ObserveExternalError("sendgrid", "mail_send", err)
		return fmt.Errorf("sendgrid: %w", err)
	}
	observability.ObserveExternal("sendgrid", "mail_send", res.StatusCode, time.Since(start))
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, strings.TrimSpace(res.Body))
	}
	return nil
}
