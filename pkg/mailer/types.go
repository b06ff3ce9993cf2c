package mailer

import "fmt"

// Email is a fully prepared message.
type Email struct {
	Headers map[string]string
	Tags    map[string]string
	Subject string
	HTML    string
	Text    string
	From    string // overrides the sender's default
	ReplyTo string
	To      []string
}

// Recipient formats "Name <email>", or just email when name is empty.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
