package coze

import "time"

// DefaultBaseURL is the Coze open API for mainland China.
const DefaultBaseURL = "https://api.coze.cn"

// Config holds Coze API settings.
type Config struct {
	Token      string        `env:"COZE_API_TOKEN"`
	WorkflowID string        `env:"COZE_WORKFLOW_ID"`
	BaseURL    string        `env:"COZE_API_BASE" envDefault:"https://api.coze.cn"`
	Timeout    time.Duration `env:"COZE_TIMEOUT" envDefault:"60s"`
	// UserQuery is the instruction passed to the workflow with every image.
	UserQuery  string `env:"COZE_USER_QUERY" envDefault:"生成图片的提示词"`
	PromptType string `env:"COZE_PROMPT_TYPE" envDefault:"midjourney"`
}

// Enabled reports whether the proxy can reach Coze.
func (c Config) Enabled() bool { return c.Token != "" && c.WorkflowID != "" }
