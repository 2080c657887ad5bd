// Package utils предоставляет вспомогательные функции для обработки данных.
package utils

import (
	"strings"
	"unicode/utf8"
)

// CleanJsonBlock удаляет markdown-обёртку вокруг JSON.
//
// Некоторые модели присылают аргументы tool call в виде
//
//	```json
//	{"key": "value"}
//	```
//
// Пустая строка превращается в "{}": вызов без аргументов.
func CleanJsonBlock(s string) string {
	s = strings.TrimSpace(s)

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	s = strings.TrimSpace(s)
	if s == "" {
		return "{}"
	}
	return s
}

// Truncate обрезает строку до max рун и добавляет "...".
// max <= 0 отключает обрезку.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
