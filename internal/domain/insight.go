package domain

import (
	"net/url"

	jsoniter "github.com/json-iterator/go"
)

// Níveis de agregação aceitos pela Graph API
const (
	LevelAd       = "ad"
	LevelAdSet    = "adset"
	LevelCampaign = "campaign"
	LevelAccount  = "account"
)

// Agrupamentos de calendário usados apenas pelos gráficos do cliente
const (
	BreakdownDay   = "day"
	BreakdownWeek  = "week"
	BreakdownMonth = "month"
)

// DailyIncrement é o time_increment das séries temporais
const DailyIncrement = "1"

// InsightsQuery é o formato interno e uniforme de consulta de insights.
// Quando há intervalo explícito e preset ao mesmo tempo, o intervalo vence.
type InsightsQuery struct {
	DateStart  string `json:"dateStart,omitempty" mapstructure:"date_start"`
	DateEnd    string `json:"dateEnd,omitempty" mapstructure:"date_end"`
	DatePreset string `json:"datePreset,omitempty" mapstructure:"date_preset"`
	Level      string `json:"level,omitempty" mapstructure:"level"`
	// Breakdown nunca é repassado ao Meta, onde "breakdowns" significa outra coisa
	Breakdown string `json:"breakdown,omitempty" mapstructure:"breakdown"`
}

func (q InsightsQuery) HasRange() bool {
	return q.DateStart != "" && q.DateEnd != ""
}

type TimeRange struct {
	Since string `json:"since"`
	Until string `json:"until"`
}

// UpstreamInsightsParams é o dialeto de parâmetros da Graph API.
// TimeRange e DatePreset nunca saem juntos.
type UpstreamInsightsParams struct {
	TimeRange     *TimeRange
	DatePreset    string
	Level         string
	TimeIncrement string
}

// Values serializa os parâmetros; time_range vai como JSON, como a Graph API espera
func (p UpstreamInsightsParams) Values() url.Values {
	values := url.Values{}

	if p.TimeRange != nil {
		encoded, _ := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(p.TimeRange)
		values.Set("time_range", encoded)
	} else if p.DatePreset != "" {
		values.Set("date_preset", p.DatePreset)
	}

	if p.Level != "" {
		values.Set("level", p.Level)
	}

	if p.TimeIncrement != "" {
		values.Set("time_increment", p.TimeIncrement)
	}

	return values
}
