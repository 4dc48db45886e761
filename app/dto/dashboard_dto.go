package dto

// DashboardSummaryDTO holds the operational counters of the desk
type DashboardSummaryDTO struct {
	ShipmentsToday int64  `json:"shipments_today"`
	QuotesTotal    int64  `json:"quotes_total"`
	QuotesPending  int64  `json:"quotes_pending"`
	ActiveCarriers int64  `json:"active_carriers"`
	GeneratedAt    string `json:"generated_at"`
}
