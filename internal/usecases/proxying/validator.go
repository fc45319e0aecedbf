package proxying

import (
	"math"
	"strconv"
	"strings"

	"github.com/vfg2006/meta-insights-proxy/internal/domain"
	"github.com/vfg2006/meta-insights-proxy/pkg/utils"
	"go.uber.org/multierr"
)

const (
	minLimit = 1
	maxLimit = 100
)

var datePresets = map[string]bool{
	"today": true, "yesterday": true, "maximum": true, "data_maximum": true,
	"last_3d": true, "last_7d": true, "last_14d": true, "last_28d": true, "last_30d": true, "last_90d": true,
	"this_week_mon_today": true, "this_week_sun_today": true, "last_week_mon_sun": true, "last_week_sun_sat": true,
	"this_month": true, "last_month": true, "this_quarter": true, "last_quarter": true,
	"this_year": true, "last_year": true,
}

var levels = map[string]bool{
	domain.LevelAd:       true,
	domain.LevelAdSet:    true,
	domain.LevelCampaign: true,
	domain.LevelAccount:  true,
}

var breakdowns = map[string]bool{
	domain.BreakdownDay:   true,
	domain.BreakdownWeek:  true,
	domain.BreakdownMonth: true,
}

var objectives = map[string]bool{
	"OUTCOME_AWARENESS":     true,
	"OUTCOME_TRAFFIC":       true,
	"OUTCOME_ENGAGEMENT":    true,
	"OUTCOME_LEADS":         true,
	"OUTCOME_APP_PROMOTION": true,
	"OUTCOME_SALES":         true,
}

var idParams = []string{"ad_account_id", "business_id", "campaign_id", "adset_id", "object_id"}

// ValidatedRequest só é produzido quando ação, parâmetros e corpo passaram na validação
type ValidatedRequest struct {
	Action Action
	Params ProxyParams
	Body   map[string]any
}

type bodySchema func(body map[string]any) error

// ValidateJSON decodifica o corpo bruto e valida
func ValidateJSON(data []byte) (*ValidatedRequest, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, invalid("request", "corpo deve ser um objeto JSON válido")
	}

	return Validate(raw)
}

// Validate checa ação, parâmetros e corpo e devolve todas as falhas juntas
func Validate(raw map[string]any) (*ValidatedRequest, error) {
	var errs error

	action, err := validateAction(raw["action"])
	errs = multierr.Append(errs, err)

	rawParams, err := objectField(raw, "params")
	errs = multierr.Append(errs, err)
	errs = multierr.Append(errs, validateParams(rawParams))

	body, err := objectField(raw, "body")
	errs = multierr.Append(errs, err)

	if schema, ok := bodySchemas[action]; ok && err == nil {
		errs = multierr.Append(errs, schema(body))
	}

	if errs != nil {
		return nil, errs
	}

	params, err := decodeParams(rawParams)
	if err != nil {
		return nil, invalid("params", "não foi possível interpretar os parâmetros: %s", err.Error())
	}

	if body == nil {
		body = map[string]any{}
	}

	return &ValidatedRequest{Action: action, Params: params, Body: body}, nil
}

func validateAction(value any) (Action, error) {
	if value == nil {
		return "", invalid("action", "campo obrigatório")
	}

	name, ok := value.(string)
	if !ok {
		return "", invalid("action", "deve ser uma string")
	}

	action := Action(name)
	if !action.Valid() {
		return "", invalid("action", "ação desconhecida %q (aceitas: %s)", name, strings.Join(Actions(), ", "))
	}

	return action, nil
}

func objectField(raw map[string]any, field string) (map[string]any, error) {
	value, ok := raw[field]
	if !ok || value == nil {
		return nil, nil
	}

	object, ok := value.(map[string]any)
	if !ok {
		return nil, invalid(field, "deve ser um objeto")
	}

	return object, nil
}

// validateParams confere apenas os campos conhecidos; campos extras passam sem checagem
func validateParams(params map[string]any) error {
	var errs error

	for _, field := range idParams {
		if value, ok := params[field]; ok {
			errs = multierr.Append(errs, identifier("params."+field, value))
		}
	}

	for _, field := range []string{"after", "before", "fields", "ids"} {
		if value, ok := params[field]; ok {
			if _, isString := value.(string); !isString {
				errs = multierr.Append(errs, invalid("params."+field, "deve ser uma string"))
			}
		}
	}

	if value, ok := params["limit"]; ok {
		errs = multierr.Append(errs, validateLimit(value))
	}

	errs = multierr.Append(errs, validateDateRange(params))
	errs = multierr.Append(errs, enum(params, "date_preset", datePresets))
	errs = multierr.Append(errs, enum(params, "level", levels))
	errs = multierr.Append(errs, enum(params, "breakdown", breakdowns))

	return errs
}

func validateLimit(value any) error {
	var limit float64

	switch v := value.(type) {
	case float64:
		limit = v
	case int:
		limit = float64(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return invalid("params.limit", "deve ser um número inteiro")
		}
		limit = float64(parsed)
	default:
		return invalid("params.limit", "deve ser um número inteiro")
	}

	if limit != math.Trunc(limit) {
		return invalid("params.limit", "deve ser um número inteiro")
	}

	if limit < minLimit || limit > maxLimit {
		return invalid("params.limit", "deve estar entre %d e %d", minLimit, maxLimit)
	}

	return nil
}

func validateDateRange(params map[string]any) error {
	var errs error

	start, hasStart := params["date_start"]
	end, hasEnd := params["date_end"]

	startStr, startOK := dateValue("params.date_start", start, hasStart, &errs)
	endStr, endOK := dateValue("params.date_end", end, hasEnd, &errs)

	switch {
	case hasStart && !hasEnd:
		errs = multierr.Append(errs, invalid("params.date_end", "obrigatório quando date_start é informado"))
	case hasEnd && !hasStart:
		errs = multierr.Append(errs, invalid("params.date_start", "obrigatório quando date_end é informado"))
	case startOK && endOK:
		startDate, _ := utils.ParseDate(startStr)
		endDate, _ := utils.ParseDate(endStr)
		if startDate.After(*endDate) {
			errs = multierr.Append(errs, invalid("params.date_start", "não pode ser posterior a date_end"))
		}
	}

	return errs
}

func dateValue(field string, value any, present bool, errs *error) (string, bool) {
	if !present {
		return "", false
	}

	str, ok := value.(string)
	if !ok || !utils.IsDateOnly(str) {
		*errs = multierr.Append(*errs, invalid(field, "deve estar no formato YYYY-MM-DD"))
		return "", false
	}

	return str, true
}

func enum(params map[string]any, field string, allowed map[string]bool) error {
	value, ok := params[field]
	if !ok {
		return nil
	}

	str, isString := value.(string)
	if !isString || !allowed[str] {
		return invalid("params."+field, "valor inválido %v", value)
	}

	return nil
}

func identifier(field string, value any) error {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return invalid(field, "não pode ser vazio")
		}
		return nil
	case float64:
		if v != math.Trunc(v) || v <= 0 {
			return invalid(field, "identificador inválido")
		}
		return nil
	default:
		return invalid(field, "deve ser uma string")
	}
}

func genericBody(map[string]any) error {
	return nil
}

func createCampaignBody(body map[string]any) error {
	var errs error

	errs = multierr.Append(errs, requiredString(body, "name"))

	if err := requiredString(body, "objective"); err != nil {
		errs = multierr.Append(errs, err)
	} else if objective := body["objective"].(string); !objectives[objective] {
		errs = multierr.Append(errs, invalid("body.objective", "objetivo inválido %q", objective))
	}

	errs = multierr.Append(errs, optionalStatus(body, domain.CampaignStatusActive, domain.CampaignStatusPaused))
	errs = multierr.Append(errs, budgets(body))

	if value, ok := body["special_ad_categories"]; ok {
		if _, isList := value.([]any); !isList {
			errs = multierr.Append(errs, invalid("body.special_ad_categories", "deve ser uma lista"))
		}
	}

	return errs
}

func updateCampaignBody(body map[string]any) error {
	if len(body) == 0 {
		return invalid("body", "informe ao menos um campo para atualizar")
	}

	var errs error

	if _, ok := body["name"]; ok {
		errs = multierr.Append(errs, requiredString(body, "name"))
	}

	errs = multierr.Append(errs, optionalStatus(body, domain.CampaignStatusActive, domain.CampaignStatusPaused, domain.CampaignStatusArchived))
	errs = multierr.Append(errs, budgets(body))

	return errs
}

func requiredString(body map[string]any, field string) error {
	value, ok := body[field].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return invalid("body."+field, "campo obrigatório")
	}
	return nil
}

func optionalStatus(body map[string]any, allowed ...string) error {
	value, ok := body["status"]
	if !ok {
		return nil
	}

	status, _ := value.(string)
	for _, candidate := range allowed {
		if status == candidate {
			return nil
		}
	}

	return invalid("body.status", "deve ser um de %s", strings.Join(allowed, ", "))
}

// budgets valida valores em centavos; o Meta aceita orçamento diário ou vitalício, nunca os dois
func budgets(body map[string]any) error {
	var errs error

	_, hasDaily := body["daily_budget"]
	_, hasLifetime := body["lifetime_budget"]
	if hasDaily && hasLifetime {
		errs = multierr.Append(errs, invalid("body.lifetime_budget", "não pode ser usado junto com daily_budget"))
	}

	for _, field := range []string{"daily_budget", "lifetime_budget"} {
		value, ok := body[field]
		if !ok {
			continue
		}

		var amount float64
		switch v := value.(type) {
		case float64:
			amount = v
		case string:
			amount = utils.CoerceFloat(v)
		}

		if amount <= 0 || amount != math.Trunc(amount) {
			errs = multierr.Append(errs, invalid("body."+field, "deve ser um valor inteiro positivo em centavos"))
		}
	}

	return errs
}
