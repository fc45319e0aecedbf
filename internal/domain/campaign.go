package domain

// Status possíveis de uma campanha no Meta
const (
	CampaignStatusActive   = "ACTIVE"
	CampaignStatusPaused   = "PAUSED"
	CampaignStatusArchived = "ARCHIVED"
)

// CampaignInsights é o resumo recente anexado a cada campanha.
// Valores monetários e razões em float, contadores em inteiro.
type CampaignInsights struct {
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CPC         float64 `json:"cpc"`
	CPM         float64 `json:"cpm"`
	CTR         float64 `json:"ctr"`
	Reach       int64   `json:"reach"`
	Frequency   float64 `json:"frequency"`
}

type Campaign struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	EffectiveStatus string `json:"effectiveStatus,omitempty"`
	Objective       string `json:"objective"`
	DailyBudget     string `json:"dailyBudget,omitempty"`
	LifetimeBudget  string `json:"lifetimeBudget,omitempty"`
	StartTime       string `json:"startTime,omitempty"`
	StopTime        string `json:"stopTime,omitempty"`

	Insights CampaignInsights `json:"insights"`
	// EnrichmentFailed distingue "gasto zero" de "insights indisponíveis"
	EnrichmentFailed bool `json:"enrichmentFailed"`
}
