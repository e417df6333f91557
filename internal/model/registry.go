package model

// ModelType declares which council seats a model may fill.
type ModelType string

const (
	TypeCouncil  ModelType = "council"
	TypeChairman ModelType = "chairman"
	TypeBoth     ModelType = "both"
)

// Pricing is the price table entry for one model, in dollars per million
// tokens. Loaded once per session and treated as a read-only snapshot for the
// duration of a cost estimate.
type Pricing struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// ModelInfo describes one selectable model.
type ModelInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         ModelType `json:"type"`
	Pricing      Pricing   `json:"pricing"`
	Capabilities []string  `json:"capabilities,omitempty"`
}

// CanSitOnCouncil reports whether the model may be a council member.
func (m ModelInfo) CanSitOnCouncil() bool {
	return m.Type == TypeCouncil || m.Type == TypeBoth
}

// CanChair reports whether the model may be chairman.
func (m ModelInfo) CanChair() bool {
	return m.Type == TypeChairman || m.Type == TypeBoth
}

// ModelsResponse is the body of GET /api/models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// PriceTable maps model identifier to its pricing snapshot.
type PriceTable map[string]Pricing

// NewPriceTable builds a price table from a model registry.
func NewPriceTable(models []ModelInfo) PriceTable {
	table := make(PriceTable, len(models))
	for _, m := range models {
		table[m.ID] = m.Pricing
	}
	return table
}

// DisplayNames maps model identifier to human-readable name.
func DisplayNames(models []ModelInfo) map[string]string {
	names := make(map[string]string, len(models))
	for _, m := range models {
		names[m.ID] = m.Name
	}
	return names
}

// ModelStats is one row of GET /api/analytics: aggregate peer-ranking
// performance for a model across all stored conversations.
type ModelStats struct {
	Model       string  `json:"model"`
	AverageRank float64 `json:"average_rank"`
	WinRate     float64 `json:"win_rate"`
	Evaluations int     `json:"evaluations"`
}

// AnalyticsResponse is the body of GET /api/analytics.
type AnalyticsResponse struct {
	Models []ModelStats `json:"models"`
}
