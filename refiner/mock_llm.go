package refiner

import (
	"context"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// 第一轮给出一条固定批评和一份打了标记的修订，第二轮直接认可，
// 所以离线运行总是在两轮内结束。
type MockLLM struct{}

const mockRevisionMark = "[mock revision applied]"

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	switch {
	case strings.Contains(prompt.System, "peer reviewer"):
		if strings.Contains(prompt.User, mockRevisionMark) {
			return "No substantive issues remain.", nil
		}
		return "The core argument is asserted without supporting evidence.", nil
	case strings.Contains(prompt.System, "revising a document"):
		var sb strings.Builder
		sb.WriteString(mockRevisionMark)
		sb.WriteString("\n\n")
		sb.WriteString(prompt.User)
		return sb.String(), nil
	default:
		return "SUBSTANTIVE", nil
	}
}
