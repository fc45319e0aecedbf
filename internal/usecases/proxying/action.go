package proxying

import "sort"

// Action é o conjunto fechado de operações aceitas pelo proxy
type Action string

const (
	ActionAdAccounts           Action = "ad_accounts"
	ActionBusinesses           Action = "businesses"
	ActionBusinessAdAccounts   Action = "business_ad_accounts"
	ActionCampaigns            Action = "campaigns"
	ActionCampaignsWithInsight Action = "campaigns_with_insights"
	ActionAdSets               Action = "adsets"
	ActionAds                  Action = "ads"
	ActionInsights             Action = "insights"
	ActionInsightsTimeseries   Action = "insights_timeseries"
	ActionCreateCampaign       Action = "create_campaign"
	ActionUpdateCampaign       Action = "update_campaign"
	ActionDuplicateCampaign    Action = "duplicate_campaign"
)

// bodySchemas associa cada ação ao schema do corpo; ações de leitura usam o genérico
var bodySchemas = map[Action]bodySchema{
	ActionAdAccounts:           genericBody,
	ActionBusinesses:           genericBody,
	ActionBusinessAdAccounts:   genericBody,
	ActionCampaigns:            genericBody,
	ActionCampaignsWithInsight: genericBody,
	ActionAdSets:               genericBody,
	ActionAds:                  genericBody,
	ActionInsights:             genericBody,
	ActionInsightsTimeseries:   genericBody,
	ActionCreateCampaign:       createCampaignBody,
	ActionUpdateCampaign:       updateCampaignBody,
	ActionDuplicateCampaign:    genericBody,
}

func (a Action) Valid() bool {
	_, ok := bodySchemas[a]
	return ok
}

// IsMutation indica ações que alteram objetos no Meta
func (a Action) IsMutation() bool {
	return a == ActionCreateCampaign || a == ActionUpdateCampaign || a == ActionDuplicateCampaign
}

// Actions devolve as ações aceitas em ordem alfabética
func Actions() []string {
	names := make([]string, 0, len(bodySchemas))
	for action := range bodySchemas {
		names = append(names, string(action))
	}
	sort.Strings(names)
	return names
}
