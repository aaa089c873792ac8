package shared

import (
	"fmt"
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	TotalTokens      int    `json:"totalTokens"`
	Model            string `json:"model,omitempty"`
}

// AgentMeta holds operational metadata for one model-backed step, such as
// structuring a clipped recipe.
type AgentMeta struct {
	AgentName string        `json:"agent"`
	Usage     TokenUsage    `json:"usage"`
	Latency   time.Duration `json:"latency"`
}

// String renders the metadata for log lines.
func (m AgentMeta) String() string {
	if m.Usage.Model == "" {
		return fmt.Sprintf("%s: no model call (%s)", m.AgentName, m.Latency.Round(time.Millisecond))
	}
	return fmt.Sprintf("%s: %s %d+%d tokens (%s)",
		m.AgentName, m.Usage.Model, m.Usage.PromptTokens, m.Usage.CompletionTokens, m.Latency.Round(time.Millisecond))
}
