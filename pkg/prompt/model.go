// Структуры данных - описывает формат YAML файла промпта.
package prompt

// PromptFile описывает структуру YAML-файла с промптом агента
type PromptFile struct {
	Config   PromptConfig `yaml:"config"`
	Persona  Persona      `yaml:"persona"`
	Messages []Message    `yaml:"messages"` // Дополнительные сообщения после системного
}

// PromptConfig - настройки модели для конкретного промпта
type PromptConfig struct {
	Model       string  `yaml:"model"` // Например "gpt-4o-mini"
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Format      string  `yaml:"format"` // "json_object" или text
}

// Persona - кто такой агент. Из неё строится системное сообщение.
type Persona struct {
	Role      string `yaml:"role"`
	Backstory string `yaml:"backstory"`
	Goal      string `yaml:"goal"`

	// Template переопределяет DefaultPersonaTemplate.
	Template string `yaml:"template"`
}

// Message - одно сообщение в чате
type Message struct {
	Role    string `yaml:"role"`    // system, user, assistant
	Content string `yaml:"content"` // Шаблон с {{.Variables}}
}
