package llm

import "context"

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response string
	Err      error

	LastSystem   string
	LastMessages []Message
	Calls        int
}

func (m *MockClient) Generate(ctx context.Context, system string, messages []Message) (string, error) {
	m.Calls++
	m.LastSystem = system
	m.LastMessages = append([]Message(nil), messages...)
	return m.Response, m.Err
}
