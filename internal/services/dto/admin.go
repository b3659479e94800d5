package dto

import "metalhub_backend/internal/models"

type AdminUser struct {
	models.User
	ActivePlan   models.MembershipPlan `json:"activePlan,omitempty"`
	ListingCount int64                 `json:"listingCount"`
}

type UserPage struct {
	Users      []AdminUser `json:"users"`
	Pagination Pagination  `json:"pagination"`
}

type AuditLogPage struct {
	Logs       []models.AdminLog `json:"logs"`
	Pagination Pagination        `json:"pagination"`
}

type DashboardStats struct {
	TotalUsers        int64            `json:"totalUsers"`
	TotalListings     int64            `json:"totalListings"`
	PendingListings   int64            `json:"pendingListings"`
	ActiveMemberships int64            `json:"activeMemberships"`
	RecentPayments    []models.Payment `json:"recentPayments"`
}
