package metadomain

// SnapshotFields são os campos do resumo de insights anexado a cada campanha
const SnapshotFields = "spend,impressions,clicks,cpc,cpm,ctr,reach,frequency"

// InsightFields são os campos padrão das ações insights e insights_timeseries
const InsightFields = SnapshotFields + ",actions,action_values,purchase_roas,date_start,date_stop"

// CampaignInsight é uma linha de insights; a Graph API devolve todos os números como string
type CampaignInsight struct {
	CampaignID  string `json:"campaign_id,omitempty"`
	Spend       string `json:"spend"`
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	CPC         string `json:"cpc"`
	CPM         string `json:"cpm"`
	CTR         string `json:"ctr"`
	Reach       string `json:"reach"`
	Frequency   string `json:"frequency"`
	DateStart   string `json:"date_start"`
	DateStop    string `json:"date_stop"`
}

type CampaignInsightList struct {
	Data   []CampaignInsight `json:"data"`
	Paging *Paging           `json:"paging,omitempty"`
}
