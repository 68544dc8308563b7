package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// User models an authenticated actor belonging to exactly one company.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	FullName     string    `json:"fullName,omitempty" bson:"full_name"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         string    `json:"role" bson:"role"`
	CompanyID    string    `json:"companyId" bson:"company_id"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// Identity is the verified content of an identity token.
type Identity struct {
	UserID    string
	Email     string
	Role      string
	CompanyID string
}

// Tenant is the result of a successful tenant resolution.
type Tenant struct {
	CompanyID string
	Identity  Identity
}

// IsAdmin reports whether the identity carries the admin role.
func (t *Tenant) IsAdmin() bool {
	return t != nil && t.Identity.Role == RoleAdmin
}
