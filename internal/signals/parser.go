package signals

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"signal_bot/internal/models"
)

var (
	reAsset     = regexp.MustCompile(`([A-Z]+/USDT)`)
	reLeverage  = regexp.MustCompile(`(?i)Leverage:.*?\((\d+)X\)`)
	reEntry     = regexp.MustCompile(`(?i)Entry Targets:\s*(\d+\.?\d*)`)
	reTPSection = regexp.MustCompile(`(?is)Take-Profit Targets:(.*?)Stop Targets:`)
	reTPItem    = regexp.MustCompile(`\d+\)\s*(\d+\.?\d*)`)
	reStopLoss  = regexp.MustCompile(`(?i)Stop Targets:\s*(\d+\.?\d*)`)
)

// Parse извлекает сигнал из текста сообщения. Актив и направление берутся
// из первой строки, остальное — из всего текста. Любое отсутствующее поле
// делает сообщение невалидным: возвращается nil, частичных сигналов нет.
func Parse(text string) *models.Signal {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 {
		return nil
	}
	firstLine := lines[0]

	asset := parseAsset(firstLine)
	direction := parseDirection(firstLine)
	leverage := parseLeverage(text)
	entry, entryOK := parseEntry(text)
	takeProfits := parseTakeProfits(text)
	stopLoss, slOK := parseStopLoss(text)

	// Нулевые leverage/entry/stop считаем отсутствующими — так делал
	// исходный бот, и для фьючерсных сигналов ноль в этих полях
	// в любом случае не имеет смысла.
	if asset == "" || direction == "" || leverage == 0 ||
		!entryOK || entry.IsZero() ||
		len(takeProfits) == 0 ||
		!slOK || stopLoss.IsZero() {
		return nil
	}

	return &models.Signal{
		Asset:       asset,
		Direction:   direction,
		Leverage:    leverage,
		Entry:       entry,
		TakeProfits: takeProfits,
		StopLoss:    stopLoss,
	}
}

func parseAsset(firstLine string) string {
	m := reAsset.FindStringSubmatch(firstLine)
	if m == nil {
		return ""
	}
	return m[1]
}

// parseDirection: short проверяется раньше long — если строка
// умудрилась содержать оба маркера, побеждает short.
func parseDirection(firstLine string) models.Direction {
	lower := strings.ToLower(firstLine)
	switch {
	case strings.Contains(lower, "short") || strings.Contains(firstLine, "🟥"):
		return models.DirectionShort
	case strings.Contains(lower, "long") || strings.Contains(firstLine, "🟩"):
		return models.DirectionLong
	}
	return ""
}

func parseLeverage(text string) int {
	m := reLeverage.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	lev, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return lev
}

func parseEntry(text string) (decimal.Decimal, bool) {
	m := reEntry.FindStringSubmatch(text)
	if m == nil {
		return decimal.Decimal{}, false
	}
	return parsePrice(m[1])
}

// parseTakeProfits собирает нумерованный список "n) цена" из секции
// между "Take-Profit Targets:" и "Stop Targets:", в порядке следования.
func parseTakeProfits(text string) []decimal.Decimal {
	section := reTPSection.FindStringSubmatch(text)
	if section == nil {
		return nil
	}

	matches := reTPItem.FindAllStringSubmatch(section[1], -1)
	if len(matches) == 0 {
		return nil
	}

	tps := make([]decimal.Decimal, 0, len(matches))
	for _, m := range matches {
		tp, ok := parsePrice(m[1])
		if !ok {
			return nil
		}
		tps = append(tps, tp)
	}
	return tps
}

func parseStopLoss(text string) (decimal.Decimal, bool) {
	m := reStopLoss.FindStringSubmatch(text)
	if m == nil {
		return decimal.Decimal{}, false
	}
	return parsePrice(m[1])
}

func parsePrice(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
