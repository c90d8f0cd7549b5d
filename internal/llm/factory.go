package llm

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"scout/internal/config"
)

var ErrNoProviderConfigured = errors.New("no language model provider configured")

// NewClientFromConfig builds the provider stack the configuration allows:
// both keys present yields Gemini with Groq failover, a single key yields
// that provider alone.
func NewClientFromConfig(cfg config.Config, httpClient *http.Client, log *logrus.Logger) (Client, error) {
	hasGemini := cfg.GoogleAPIKey != ""
	hasGroq := cfg.GroqAPIKey != ""

	switch {
	case hasGemini && hasGroq:
		return NewFailoverClient(NewGeminiClient(cfg, httpClient), NewGroqClient(cfg, httpClient), log), nil
	case hasGemini:
		return NewGeminiClient(cfg, httpClient), nil
	case hasGroq:
		return NewGroqClient(cfg, httpClient), nil
	default:
		return nil, ErrNoProviderConfigured
	}
}
