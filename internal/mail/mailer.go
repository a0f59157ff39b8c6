package mail

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"gopkg.in/gomail.v2"
)

// Sender delivers verification messages.
type Sender interface {
	SendVerificationCode(email, code string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer    *gomail.Dialer
	fromName  string
	fromEmail string
}

// NewSMTPMailer builds the mailer.
func NewSMTPMailer(host string, port int, username, password, fromName, fromEmail string) *SMTPMailer {
	return &SMTPMailer{
		dialer:    gomail.NewDialer(host, port, username, password),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// SendVerificationCode emails the 4-digit verification code.
func (m *SMTPMailer) SendVerificationCode(email, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail))
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Carburapp - verifica email")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Il tuo codice di verifica è %s. Scade tra 10 minuti.", code))
	return m.dialer.DialAndSend(msg)
}

// NewCode generates a random 4-digit verification code.
func NewCode() (string, error) {
	const digits = "0123456789"
	code := make([]byte, 4)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[n.Int64()]
	}
	return string(code), nil
}
