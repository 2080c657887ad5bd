// Загрузка и Рендер - чтение файла и text/template.

package prompt

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/ilkoid/poncho-toolcall/pkg/config"
	"github.com/ilkoid/poncho-toolcall/pkg/llm"
)

// DefaultPersonaTemplate - системное сообщение агента по умолчанию.
const DefaultPersonaTemplate = "Your role is {{.Role}}\n Your backstory: {{.Backstory}}\n Your goal is: {{.Goal}}"

// Load загружает и парсит YAML файл промпта
func Load(path string) (*PromptFile, error) {
	// 1. Проверяем наличие
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("prompt file not found: %s", path)
	}

	// 2. Читаем байты
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	// 3. Парсим YAML
	var pf PromptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("yaml parse error: %w", err)
	}

	return &pf, nil
}

// FromConfig возвращает PromptFile по секции persona:
// загружает prompt_file, если он задан, иначе собирает Persona из полей.
// Пустая секция даёт пустой PromptFile (без системного промпта).
func FromConfig(cfg config.PersonaConfig) (*PromptFile, error) {
	if cfg.PromptFile != "" {
		return Load(cfg.PromptFile)
	}
	return &PromptFile{
		Persona: Persona{Role: cfg.Role, Backstory: cfg.Backstory, Goal: cfg.Goal},
	}, nil
}

// IsEmpty сообщает, что персона не задана.
func (p Persona) IsEmpty() bool {
	return p.Role == "" && p.Backstory == "" && p.Goal == ""
}

// SystemMessage рендерит системное сообщение персоны.
func (p Persona) SystemMessage() (string, error) {
	text := p.Template
	if text == "" {
		text = DefaultPersonaTemplate
	}
	return render("persona", text, p)
}

// SystemPrompt возвращает системный промпт файла или "", если персона пуста.
func (pf *PromptFile) SystemPrompt() (string, error) {
	if pf.Persona.IsEmpty() {
		return "", nil
	}
	return pf.Persona.SystemMessage()
}

// RenderMessages принимает данные (struct или map) и возвращает готовые сообщения
// где все {{.Field}} заменены на значения.
func (pf *PromptFile) RenderMessages(data any) ([]llm.Message, error) {
	rendered := make([]llm.Message, len(pf.Messages))

	for i, msg := range pf.Messages {
		content, err := render("msg", msg.Content, data)
		if err != nil {
			return nil, fmt.Errorf("message #%d (%s): %w", i, msg.Role, err)
		}

		role := llm.Role(strings.ToLower(msg.Role))
		switch role {
		case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant:
		default:
			return nil, fmt.Errorf("message #%d: unsupported role %q", i, msg.Role)
		}

		rendered[i] = llm.Message{Role: role, Content: content}
	}

	return rendered, nil
}

// Options переводит config секцию файла в опции генерации.
// Незаполненные поля не переопределяют настройки модели.
func (pf *PromptFile) Options() []llm.GenerateOption {
	var opts []llm.GenerateOption
	if pf.Config.Model != "" {
		opts = append(opts, llm.WithModel(pf.Config.Model))
	}
	if pf.Config.Temperature != 0 {
		opts = append(opts, llm.WithTemperature(pf.Config.Temperature))
	}
	if pf.Config.MaxTokens != 0 {
		opts = append(opts, llm.WithMaxTokens(pf.Config.MaxTokens))
	}
	if pf.Config.Format != "" {
		opts = append(opts, llm.WithFormat(pf.Config.Format))
	}
	return opts
}

func render(name, text string, data any) (string, error) {
	// Создаем шаблон
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("template parse error: %w", err)
	}

	// Рендерим в буфер
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execute error: %w", err)
	}
	return buf.String(), nil
}
