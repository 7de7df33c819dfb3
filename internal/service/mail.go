package service

import (
	"fmt"
	"time"

	"github.com/dtroode/authkeeper/internal/ids"
	"github.com/dtroode/authkeeper/internal/model"
)

// MailConfig holds what the account emails need besides the token.
type MailConfig struct {
	From             string
	ActivationURL    string
	ResetPasswordURL string
}

// Mailer prepares account emails. The token value is appended to the
// configured base URL as is.
type Mailer struct {
	cfg MailConfig
	now func() time.Time
}

func NewMailer(cfg MailConfig) *Mailer {
	return &Mailer{cfg: cfg, now: time.Now}
}

func (m *Mailer) Activation(user model.User, token string) model.Message {
	link := m.cfg.ActivationURL + token
	return m.message(model.MessageKindActivation, user.Email, "Activate your account",
		fmt.Sprintf("Hello %s,\n\nconfirm your email address to activate your account:\n\n%s\n\nIf you did not sign up, ignore this email.\n",
			greeting(user), link))
}

func (m *Mailer) ResetPassword(user model.User, token string) model.Message {
	link := m.cfg.ResetPasswordURL + token
	return m.message(model.MessageKindResetPassword, user.Email, "Reset your password",
		fmt.Sprintf("Hello %s,\n\nuse the link below to choose a new password:\n\n%s\n\nIf you did not ask for a reset, ignore this email.\n",
			greeting(user), link))
}

func (m *Mailer) message(kind model.MessageKind, recipient, subject, body string) model.Message {
	now := m.now()
	return model.Message{
		ID:        ids.NewAt(now),
		Kind:      kind,
		From:      m.cfg.From,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		CreatedAt: now,
	}
}

func greeting(user model.User) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Username
}
