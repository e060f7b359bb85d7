package email

import (
	"context"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/domain/user"
	"github.com/abengolea/heartlink-sub000/internal/shared/biztime"
)

const dateLayout = "02/01/2006"

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	BaseURL     string // Base URL for email links (e.g., "https://app.heartlink.com")
}

// SMTPBillingNotifier sends billing notices through an SMTP relay.
type SMTPBillingNotifier struct {
	config SMTPConfig
	send   func(m *gomail.Message) error
}

func NewSMTPBillingNotifier(config SMTPConfig) *SMTPBillingNotifier {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	return &SMTPBillingNotifier{
		config: config,
		send: func(m *gomail.Message) error {
			return dialer.DialAndSend(m)
		},
	}
}

func (s *SMTPBillingNotifier) NotifyPaymentApproved(ctx context.Context, u *user.User, sub *subscription.Subscription) error {
	endDate := biztime.FormatInBizTimezone(sub.EndDate(), dateLayout)
	name := html.EscapeString(u.DisplayName())

	subject := "Payment received, your HeartLink subscription is active"
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Thank you, %s!</h2>
			<p>We received your payment of <strong>%s</strong>.</p>
			<p>Your %s plan is active until <strong>%s</strong>.</p>
			<p><a href="%s/subscription">View your subscription</a></p>
		</body>
		</html>
	`, name, sub.Amount().String(), sub.PlanType().String(), endDate, s.config.BaseURL)

	plainBody := fmt.Sprintf(`
Thank you, %s!

We received your payment of %s.
Your %s plan is active until %s.

View your subscription: %s/subscription
	`, u.DisplayName(), sub.Amount().String(), sub.PlanType().String(), endDate, s.config.BaseURL)

	return s.sendEmail(u.Email(), subject, htmlBody, plainBody)
}

func (s *SMTPBillingNotifier) NotifyAccessSuspended(ctx context.Context, u *user.User, sub *subscription.Subscription) error {
	name := html.EscapeString(u.DisplayName())
	renewURL := s.config.BaseURL + "/subscription"

	subject := "Your HeartLink access has been suspended"
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Hello %s,</h2>
			<p>Your subscription expired on %s and the grace period has ended.</p>
			<p>Uploading and viewing studies is blocked until a new payment is received.</p>
			<p><a href="%s">Renew your subscription</a></p>
		</body>
		</html>
	`, name, biztime.FormatInBizTimezone(sub.EndDate(), dateLayout), renewURL)

	plainBody := fmt.Sprintf(`
Hello %s,

Your subscription expired on %s and the grace period has ended.
Uploading and viewing studies is blocked until a new payment is received.

Renew your subscription: %s
	`, u.DisplayName(), biztime.FormatInBizTimezone(sub.EndDate(), dateLayout), renewURL)

	return s.sendEmail(u.Email(), subject, htmlBody, plainBody)
}

func (s *SMTPBillingNotifier) sendEmail(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromAddress, s.config.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// NoopBillingNotifier is used when SMTP is not configured.
type NoopBillingNotifier struct{}

func (NoopBillingNotifier) NotifyPaymentApproved(context.Context, *user.User, *subscription.Subscription) error {
	return nil
}

func (NoopBillingNotifier) NotifyAccessSuspended(context.Context, *user.User, *subscription.Subscription) error {
	return nil
}
