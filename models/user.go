package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan represents the subscription tier of a user
type Plan string

const (
	PlanFree    Plan = "free"
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

// Provider represents the sign-in provider of a user
type Provider string

const (
	ProviderEmail  Provider = "email"
	ProviderGoogle Provider = "google"
	ProviderApple  Provider = "apple"
)

// User represents a user entity
type User struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"` // Never serialize password hash
	DisplayName        string     `json:"displayName"`
	PhotoURL           *string    `json:"photoUrl,omitempty"`
	Provider           Provider   `json:"provider"`
	ProviderID         *string    `json:"providerId,omitempty"`
	Plan               Plan       `json:"plan"`
	IsPremium          bool       `json:"isPremium"`
	FactChecksCount    int        `json:"factChecksCount"`
	DailyRequestsCount int        `json:"dailyRequestsCount"`
	LastRequestDate    time.Time  `json:"lastRequestDate"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	LastLoginAt        *time.Time `json:"lastLoginAt,omitempty"`
}
