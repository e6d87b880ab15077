package signals

import "strings"

// Обязательные маркеры сигнала. Нет хотя бы одного — сообщение не сигнал.
var requiredMarkers = []string{
	"leverage:",
	"entry targets:",
	"take-profit targets:",
	"stop targets:",
}

// IsSignal — дешёвый префильтр перед полным парсингом: проверяет,
// что сообщение содержит все четыре маркера (без учёта регистра).
func IsSignal(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, marker := range requiredMarkers {
		if !strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}
