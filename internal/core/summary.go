package core

// YearAmount is an amount aggregated under a "YYYY" key.
type YearAmount struct {
	Year   string
	Amount Money
}

// MonthAmount is an amount aggregated under a "YYYY-MM" key.
type MonthAmount struct {
	Month  string
	Amount Money
}

// DashboardSummary is the read-side snapshot behind the main page.
// It is recomputed from the store on every request.
type DashboardSummary struct {
	ActiveContracts int64
	ClosedContracts int64

	TotalReceived   Money
	TotalReceivable Money
	TotalRPV        Money
	TotalPrecatorio Money
	TotalFees       Money

	BilledByYear    []YearAmount
	ReceivedByMonth []MonthAmount
}
