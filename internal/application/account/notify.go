package account

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/teachmatch/accounts-api/internal/domain"
	"github.com/teachmatch/accounts-api/internal/infrastructure/smtp"
)

// MailDispatcher delivers identifier+token pairs to the account's email,
// best effort. Delivery runs detached from the request path: the caller gets
// no signal about success or failure, which the anti-enumeration contract of
// the reset flow depends on.
type MailDispatcher struct {
	mailer     smtp.Mailer
	apiBaseURL string
	siteURL    string
}

func NewMailDispatcher(mailer smtp.Mailer, apiBaseURL, siteURL string) *MailDispatcher {
	return &MailDispatcher{
		mailer:     mailer,
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
		siteURL:    strings.TrimRight(siteURL, "/"),
	}
}

func (d *MailDispatcher) Send(u *domain.User, kind Kind, identifier, token string) {
	subject, body := d.compose(kind, identifier, token)
	go func(to string) {
		if err := d.mailer.SendEmail(to, subject, body); err != nil {
			slog.Warn("account email delivery failed", "kind", string(kind), "err", err)
		}
	}(u.Email)
}

// compose builds the two links: one hitting the API confirmation endpoint
// directly, one pointing at the front-end page that calls it.
func (d *MailDispatcher) compose(kind Kind, identifier, token string) (subject, body string) {
	q := url.Values{}
	q.Set("identifier", identifier)
	q.Set("token", token)
	query := q.Encode()

	switch kind {
	case KindPasswordReset:
		apiLink := fmt.Sprintf("%s/v1/reset-password/confirm?%s", d.apiBaseURL, query)
		feLink := fmt.Sprintf("%s/reset-password?%s", d.siteURL, query)
		return "TeachMatch: Password reset",
			fmt.Sprintf("Reset your password:\n\nAPI: %s\nFrontend: %s", apiLink, feLink)
	default:
		apiLink := fmt.Sprintf("%s/v1/verify-email?%s", d.apiBaseURL, query)
		feLink := fmt.Sprintf("%s/verify-email?%s", d.siteURL, query)
		return "TeachMatch: Verify your email",
			fmt.Sprintf("Verify your email:\n\nAPI: %s\nFrontend: %s", apiLink, feLink)
	}
}
