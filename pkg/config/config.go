package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrModelNotDefined - запрошенная модель отсутствует в models.definitions.
var ErrModelNotDefined = errors.New("model is not defined")

// AppConfig - корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type AppConfig struct {
	Models  ModelsConfig          `yaml:"models"`
	Loop    LoopConfig            `yaml:"loop"`
	Tools   map[string]ToolConfig `yaml:"tools"`
	Fetch   FetchConfig           `yaml:"fetch"`
	Files   FilesConfig           `yaml:"files"`
	S3      S3Config              `yaml:"s3"`
	Persona PersonaConfig         `yaml:"persona"`
	App     AppSpecific           `yaml:"app"`
}

// ModelsConfig - настройки AI моделей.
type ModelsConfig struct {
	DefaultChat string              `yaml:"default_chat"` // Алиас для чата по умолчанию (например, "gpt-4o-mini")
	Definitions map[string]ModelDef `yaml:"definitions"`  // Словарь определений моделей
}

// ModelDef - параметры конкретной модели.
type ModelDef struct {
	Provider    string        `yaml:"provider"`   // "openai", "zai", "deepseek"
	ModelName   string        `yaml:"model_name"` // Реальное имя в API
	APIKey      string        `yaml:"api_key"`    // Поддерживает ${VAR}
	BaseURL     string        `yaml:"base_url"`   // Для OpenAI-совместимых провайдеров
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"` // Go умеет парсить строки вида "60s", "1m"
}

// LoopConfig - настройки Conversation Loop.
type LoopConfig struct {
	MaxRounds     int           `yaml:"max_rounds"`     // 0 - без ограничения
	ParallelTools bool          `yaml:"parallel_tools"` // Выполнять tool calls раунда конкурентно
	MaxParallel   int           `yaml:"max_parallel"`   // 0 - без ограничения
	ToolTimeout   time.Duration `yaml:"tool_timeout"`
	RunTimeout    time.Duration `yaml:"run_timeout"`
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *LoopConfig) GetDefaults() LoopConfig {
	result := *c // Копируем текущие значения

	if result.RunTimeout == 0 {
		result.RunTimeout = 120 * time.Second
	}
	if result.ToolTimeout == 0 {
		result.ToolTimeout = 30 * time.Second
	}
	return result
}

// ToolConfig - настройки одного инструмента.
type ToolConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"` // Переопределяет loop.tool_timeout
}

// FetchConfig - настройки инструмента fetch_url.
type FetchConfig struct {
	RatePerMinute int   `yaml:"rate_per_minute"` // Запросов в минуту
	Burst         int   `yaml:"burst"`           // Burst для rate limiter
	MaxBytes      int64 `yaml:"max_bytes"`       // Максимальный размер тела ответа
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *FetchConfig) GetDefaults() FetchConfig {
	result := *c

	if result.RatePerMinute == 0 {
		result.RatePerMinute = 30
	}
	if result.Burst == 0 {
		result.Burst = 3
	}
	if result.MaxBytes == 0 {
		result.MaxBytes = 256 << 10
	}
	return result
}

// FilesConfig - настройки файловых инструментов.
type FilesConfig struct {
	Root string `yaml:"root"` // Каталог, за пределы которого read_file и list_dir не выходят
}

// S3Config - настройки объектного хранилища для инструментов s3_list и s3_read.
// Пустой bucket - инструменты не регистрируются.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
	MaxBytes  int64  `yaml:"max_bytes"` // Сколько байт объекта отдавать модели
}

// PersonaConfig - системный промпт агента.
// Либо PromptFile, либо поля Role/Backstory/Goal напрямую.
type PersonaConfig struct {
	PromptFile string `yaml:"prompt_file"`
	Role       string `yaml:"role"`
	Backstory  string `yaml:"backstory"`
	Goal       string `yaml:"goal"`
}

// AppSpecific - общие настройки приложения.
type AppSpecific struct {
	Debug     bool            `yaml:"debug"`
	LogFile   string          `yaml:"log_file"` // Пусто - toolcall-YYYY-MM-DD-HH-MM.log
	DebugLogs DebugLogsConfig `yaml:"debug_logs"`
}

// DebugLogsConfig - JSON трейсы каждого Run.
type DebugLogsConfig struct {
	Enabled            bool   `yaml:"enabled"`
	LogsDir            string `yaml:"logs_dir"`
	IncludeToolArgs    bool   `yaml:"include_tool_args"`
	IncludeToolResults bool   `yaml:"include_tool_results"`
	MaxResultSize      int    `yaml:"max_result_size"` // 0 - без ограничения
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 3. Подставляем переменные окружения.
	// os.ExpandEnv заменяет ${VAR} или $VAR на значение из системы.
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	// 4. Парсим YAML в структуру
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	// 5. Валидируем критические настройки
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	if len(c.Models.Definitions) == 0 {
		return fmt.Errorf("models.definitions must contain at least one model")
	}
	if c.Models.DefaultChat != "" {
		if _, ok := c.Models.Definitions[c.Models.DefaultChat]; !ok {
			return fmt.Errorf("default_chat model '%s': %w", c.Models.DefaultChat, ErrModelNotDefined)
		}
	}
	for name, def := range c.Models.Definitions {
		if def.ModelName == "" {
			return fmt.Errorf("models.definitions.%s.model_name is required", name)
		}
	}
	if c.Loop.MaxRounds < 0 {
		return fmt.Errorf("loop.max_rounds must be >= 0, got %d", c.Loop.MaxRounds)
	}
	if c.Loop.MaxParallel < 0 {
		return fmt.Errorf("loop.max_parallel must be >= 0, got %d", c.Loop.MaxParallel)
	}
	if c.S3.Bucket != "" && c.S3.Endpoint == "" {
		return fmt.Errorf("s3.endpoint is required when s3.bucket is set")
	}
	if c.Persona.PromptFile != "" && c.Persona.Role != "" {
		return fmt.Errorf("persona: set either prompt_file or role, not both")
	}
	return nil
}

// Helper методы для удобства доступа (Syntactic sugar)

// GetChatModel возвращает конфигурацию модели по имени или модель по умолчанию.
func (c *AppConfig) GetChatModel(name string) (ModelDef, error) {
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	if !ok {
		return ModelDef{}, fmt.Errorf("chat model '%s': %w", name, ErrModelNotDefined)
	}
	return m, nil
}

// ToolEnabled сообщает, включён ли инструмент.
// Инструменты, не упомянутые в секции tools, включены.
func (c *AppConfig) ToolEnabled(name string) bool {
	tc, ok := c.Tools[name]
	if !ok {
		return true
	}
	return tc.Enabled
}
