package insighting

import (
	"net/url"

	"github.com/vfg2006/meta-insights-proxy/internal/domain"
)

// reservedInsightKeys são controlados pelo tradutor e nunca copiados dos parâmetros extras.
// "breakdowns" (segmentação do Meta, ex.: age) segue como extra; só o breakdown de agrupamento do cliente é barrado.
var reservedInsightKeys = []string{
	"date_start",
	"date_end",
	"date_preset",
	"time_range",
	"time_increment",
	"level",
	"breakdown",
}

// Translate converte a consulta interna no dialeto da Graph API.
// Intervalo explícito vence o preset; sem nenhum dos dois vale a janela padrão do Meta.
func Translate(query domain.InsightsQuery) domain.UpstreamInsightsParams {
	var params domain.UpstreamInsightsParams

	switch {
	case query.HasRange():
		params.TimeRange = &domain.TimeRange{Since: query.DateStart, Until: query.DateEnd}
	case query.DatePreset != "":
		params.DatePreset = query.DatePreset
	}

	params.Level = query.Level

	return params
}

// TranslateTimeseries força granularidade diária, ignorando o breakdown pedido pelo cliente
func TranslateTimeseries(query domain.InsightsQuery) domain.UpstreamInsightsParams {
	params := Translate(query)
	params.TimeIncrement = domain.DailyIncrement

	if params.TimeRange != nil {
		params.DatePreset = ""
	}

	return params
}

// InsightsValues monta os parâmetros finais: os traduzidos mais os extras repassados (fields, limit, after...).
// A exclusividade entre time_range e date_preset é garantida de novo no final.
func InsightsValues(params domain.UpstreamInsightsParams, extra url.Values) url.Values {
	values := url.Values{}

	for key, items := range extra {
		values[key] = append([]string(nil), items...)
	}
	for _, key := range reservedInsightKeys {
		values.Del(key)
	}

	for key, items := range params.Values() {
		values[key] = items
	}

	if values.Get("time_range") != "" {
		values.Del("date_preset")
	}

	return values
}
