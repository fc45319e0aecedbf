package proxying

import (
	"net/url"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"github.com/vfg2006/meta-insights-proxy/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ProxyParams são os parâmetros conhecidos; o resto vai em Extra e é repassado ao Meta sem alteração
type ProxyParams struct {
	AdAccountID string `mapstructure:"ad_account_id"`
	BusinessID  string `mapstructure:"business_id"`
	CampaignID  string `mapstructure:"campaign_id"`
	AdSetID     string `mapstructure:"adset_id"`
	ObjectID    string `mapstructure:"object_id"`

	Limit  int    `mapstructure:"limit"`
	After  string `mapstructure:"after"`
	Before string `mapstructure:"before"`
	Fields string `mapstructure:"fields"`
	IDs    string `mapstructure:"ids"`

	Insights domain.InsightsQuery `mapstructure:",squash"`

	Extra map[string]any `mapstructure:",remain"`
}

func decodeParams(raw map[string]any) (ProxyParams, error) {
	var params ProxyParams

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &params,
	})
	if err != nil {
		return params, err
	}

	if err := decoder.Decode(raw); err != nil {
		return params, err
	}

	return params, nil
}

// reservedParams são preenchidos pelo Graph client a partir da conexão salva
var reservedParams = map[string]bool{
	"access_token":    true,
	"appsecret_proof": true,
}

// UpstreamValues devolve paginação, fields, ids e extras no formato de query da Graph API
func (p ProxyParams) UpstreamValues(defaultFields string) url.Values {
	values := url.Values{}

	for key, value := range p.Extra {
		if reservedParams[key] {
			continue
		}
		if encoded, ok := queryValue(value); ok {
			values.Set(key, encoded)
		}
	}

	fields := p.Fields
	if fields == "" {
		fields = defaultFields
	}
	if fields != "" {
		values.Set("fields", fields)
	}

	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.After != "" {
		values.Set("after", p.After)
	}
	if p.Before != "" {
		values.Set("before", p.Before)
	}
	if p.IDs != "" {
		values.Set("ids", p.IDs)
	}

	return values
}

// queryValue converte valores JSON arbitrários; objetos e listas seguem como JSON
func queryValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		encoded, err := json.MarshalToString(v)
		if err != nil {
			return "", false
		}
		return encoded, true
	}
}
