package utils

import (
	"math"
	"strconv"
	"strings"
)

func RoundWithTwoDecimalPlace(f float64) float64 {
	if f == 0 {
		return 0
	}

	return math.Round(f*100) / 100
}

// CoerceFloat converte um campo numérico da Graph API (que chega como string) para float64.
// Campo ausente, vazio ou inválido vira 0; NaN e infinito também viram 0.
func CoerceFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return f
}

// CoerceInt converte contadores (impressions, clicks, reach) para int64.
// Valores com casa decimal ("12.0") são truncados; falhas viram 0.
func CoerceInt(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}

	f := CoerceFloat(value)
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0
	}

	return int64(f)
}
