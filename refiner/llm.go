package refiner

import "context"

// LLMClient 抽象大模型客户端，便于替换/Mock。
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is one self-contained completion request. Every call carries
// its full context; the model keeps no conversation state between
// calls. System may be empty (the judge prompt is user-only) and
// Temperature is only set when a deterministic verdict is wanted.
type Prompt struct {
	System      string
	User        string
	Temperature *float64
}

// LLMSettings 提供给具体实现的基础配置，也是 config.json 的 llm 段。
type LLMSettings struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}
