package domain

import "time"

// Service is a product offered to customers (air freight, cold storage, ...).
type Service struct {
	ID          string    `json:"id" bson:"_id"`
	Slug        string    `json:"slug" bson:"slug"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	BasePrice   int64     `json:"basePrice" bson:"base_price"`
	Currency    string    `json:"currency" bson:"currency"`
	CompanyID   string    `json:"companyId,omitempty" bson:"company_id,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

type FAQ struct {
	ID        string    `json:"id" bson:"_id"`
	Question  string    `json:"question" bson:"question"`
	Answer    string    `json:"answer" bson:"answer"`
	Order     int       `json:"order" bson:"order"`
	CompanyID string    `json:"companyId,omitempty" bson:"company_id,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// SeedGuard records that the reference data seeder has run.
type SeedGuard struct {
	ID        string    `json:"id" bson:"_id"`
	CompanyID string    `json:"companyId" bson:"company_id"`
	RanBy     string    `json:"ranBy" bson:"ran_by"`
	RanAt     time.Time `json:"ranAt" bson:"ran_at"`
}

// SeedGuardID is the key of the one-time guard record.
const SeedGuardID = "seed"
