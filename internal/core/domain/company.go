package domain

import "time"

// Plan is the subscription tier of a company.
type Plan string

const (
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Company is the tenant. Every tenant-scoped entity carries its ID.
type Company struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Plan      Plan      `json:"plan" bson:"plan"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}
