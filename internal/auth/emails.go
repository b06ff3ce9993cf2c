package auth

import "embed"

// Emails holds the sign-in email templates, laid out for mailer.NewRenderer
// with TemplateDir "emails" and LayoutDir "emails/layouts".
//
//go:embed emails
var Emails embed.FS

// MagicLinkTemplate is the magic link email.
const MagicLinkTemplate = "magic-link.md"

type magicLinkData struct {
	FirstName string
	ActionURL string
	MailType  string // "login" or "register"
	SiteName  string
}
