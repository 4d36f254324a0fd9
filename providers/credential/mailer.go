package credential

import (
	"context"
	"log"
)

// LogMailer is a development Mailer that logs emails to the console instead
// of sending them.
type LogMailer struct{}

var _ Mailer = (*LogMailer)(nil)

func (m *LogMailer) SendVerificationEmail(ctx context.Context, to, url string) error {
	log.Printf("\n=== EMAIL: Verification ===")
	log.Printf("To: %s", to)
	log.Printf("Subject: Verify your email address")
	log.Printf("Body: Please verify your email by clicking: %s", url)
	log.Printf("===========================\n")
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(ctx context.Context, to, url string) error {
	log.Printf("\n=== EMAIL: Password Reset ===")
	log.Printf("To: %s", to)
	log.Printf("Subject: Reset your password")
	log.Printf("Body: Reset your password by clicking: %s", url)
	log.Printf("==============================\n")
	return nil
}

func (m *LogMailer) SendPasswordChangedEmail(ctx context.Context, to string) error {
	log.Printf("\n=== EMAIL: Password Changed ===")
	log.Printf("To: %s", to)
	log.Printf("Subject: Your password was changed")
	log.Printf("Body: If this wasn't you, reset your password immediately.")
	log.Printf("================================\n")
	return nil
}
