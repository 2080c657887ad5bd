package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-toolcall/pkg/config"
)

func TestNewLLMProvider(t *testing.T) {
	for _, provider := range []string{"openai", "zai", "deepseek", ""} {
		p, err := NewLLMProvider(config.ModelDef{Provider: provider, ModelName: "m", APIKey: "k"})
		require.NoError(t, err, provider)
		assert.NotNil(t, p)
	}

	_, err := NewLLMProvider(config.ModelDef{Provider: "anthropic-native", ModelName: "m"})
	assert.Error(t, err)
}
