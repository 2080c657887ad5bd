package utils

import "github.com/go-logr/logr"

// Logr возвращает logr.Logger, пишущий в тот же файл, что и Info/Debug/Warn/Error.
//
// V(0) пишется как INFO, V(1) и выше как DEBUG.
func Logr() logr.Logger {
	return logr.New(&fileSink{})
}

// fileSink реализует logr.LogSink поверх файлового логгера.
type fileSink struct {
	name   string
	values []any
}

func (s *fileSink) Init(logr.RuntimeInfo) {}

func (s *fileSink) Enabled(level int) bool {
	if level == 0 {
		return true
	}
	logMutex.Lock()
	defer logMutex.Unlock()
	return logDebug
}

func (s *fileSink) Info(level int, msg string, keysAndValues ...any) {
	lvl := "INFO"
	if level > 0 {
		lvl = "DEBUG"
	}
	log(lvl, s.message(msg), s.merge(keysAndValues)...)
}

func (s *fileSink) Error(err error, msg string, keysAndValues ...any) {
	kv := append([]any{"error", err}, s.merge(keysAndValues)...)
	log("ERROR", s.message(msg), kv...)
}

func (s *fileSink) WithValues(keysAndValues ...any) logr.LogSink {
	return &fileSink{name: s.name, values: s.merge(keysAndValues)}
}

func (s *fileSink) WithName(name string) logr.LogSink {
	if s.name != "" {
		name = s.name + "." + name
	}
	return &fileSink{name: name, values: s.values}
}

func (s *fileSink) message(msg string) string {
	if s.name == "" {
		return msg
	}
	return s.name + ": " + msg
}

func (s *fileSink) merge(keysAndValues []any) []any {
	out := make([]any, 0, len(s.values)+len(keysAndValues))
	out = append(out, s.values...)
	return append(out, keysAndValues...)
}

var _ logr.LogSink = (*fileSink)(nil)

