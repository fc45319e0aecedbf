package metadomain

import "encoding/json"

// CampaignFields são os campos pedidos ao listar campanhas
const CampaignFields = "id,name,status,effective_status,objective,daily_budget,lifetime_budget,start_time,stop_time"

const (
	AdSetFields = "id,name,status,effective_status,campaign_id,daily_budget,lifetime_budget,optimization_goal,billing_event,start_time,end_time"
	AdFields    = "id,name,status,effective_status,adset_id,campaign_id,creative{id,name,thumbnail_url}"
)

type Campaign struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	EffectiveStatus string `json:"effective_status,omitempty"`
	Objective       string `json:"objective"`
	DailyBudget     string `json:"daily_budget,omitempty"`
	LifetimeBudget  string `json:"lifetime_budget,omitempty"`
	StartTime       string `json:"start_time,omitempty"`
	StopTime        string `json:"stop_time,omitempty"`
}

type Cursors struct {
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

type Paging struct {
	Cursors  *Cursors `json:"cursors,omitempty"`
	Next     string   `json:"next,omitempty"`
	Previous string   `json:"previous,omitempty"`
}

// ListResponse é a forma genérica das listas da Graph API; data e paging seguem sem conversão
type ListResponse struct {
	Data   json.RawMessage `json:"data"`
	Paging json.RawMessage `json:"paging,omitempty"`
}

type CampaignList struct {
	Data   []Campaign `json:"data"`
	Paging *Paging    `json:"paging,omitempty"`
}

// CopyResponse é a resposta de POST /{campaign_id}/copies
type CopyResponse struct {
	CopiedCampaignID string `json:"copied_campaign_id"`
}

// MutationResponse é a resposta de POST /{object_id}
type MutationResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}
