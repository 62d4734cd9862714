package llm

import (
	"strings"

	"go.uber.org/zap"
)

// New elige el proveedor configurado. Devuelve nil si no hay API key:
// los servicios usan entonces sus textos de plantilla.
func New(provider, apiKey, baseURL, model string, logger *zap.Logger) LLMClient {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "anthropic":
		return NewAnthropicClient(apiKey, model)
	default:
		return NewHTTPClient(baseURL, apiKey, model, logger)
	}
}
