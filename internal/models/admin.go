package models

// DashboardCounters is the operator overview
type DashboardCounters struct {
	UsersTotal      int64 `json:"users_total"`
	UsersToday      int64 `json:"users_today"`
	ReferralsTotal  int64 `json:"referrals_total"`
	CommissionPaid  int64 `json:"commission_paid"`
	OrdersToday     int64 `json:"orders_today"`
	RevenueToday    int64 `json:"revenue_today"`
	PendingOrders   int64 `json:"pending_orders"`
	PendingDeposits int64 `json:"pending_deposits"`
	LinksAvailable  int64 `json:"links_available"`
	LinksUsed       int64 `json:"links_used"`
}

// AllModels lists every persisted model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Wallet{},
		&Referral{},
		&ReferralProfit{},
		&DepositRequest{},
		&Order{},
		&Subscription{},
		&Link{},
	}
}
