package resend

// Config configures delivery through Resend.
type Config struct {
	APIKey      string `env:"RESEND_API_KEY"`
	SenderEmail string `env:"RESEND_FROM"`
	SenderName  string `env:"RESEND_FROM_NAME" envDefault:"Saasfly"`
}

// Enabled reports whether an API key and sender address are set.
func (c Config) Enabled() bool { return c.APIKey != "" && c.SenderEmail != "" }

// From is the default sender address.
func (c Config) From() string {
	if c.SenderName == "" {
		return c.SenderEmail
	}
	return c.SenderName + " <" + c.SenderEmail + ">"
}
