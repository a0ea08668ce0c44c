package domain

import "time"

// Account status values.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
	StatusPending  = "pending"
)

// Account is keyed by its unique username (email or phone number). AccountID is
// a ULID carried on the item and resolvable through the account_id-index GSI.
type Account struct {
	AccountID    string    `json:"id" dynamodbav:"account_id"`
	Username     string    `json:"username" dynamodbav:"username"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Status       string    `json:"status" dynamodbav:"status"`
	InviterID    *string   `json:"inviter_id,omitempty" dynamodbav:"inviter_id,omitempty"`
	BdVid        *string   `json:"bd_vid,omitempty" dynamodbav:"bd_vid,omitempty"`
	Msclkid      *string   `json:"msclkid,omitempty" dynamodbav:"msclkid,omitempty"`
	Sem          *string   `json:"sem,omitempty" dynamodbav:"sem,omitempty"`
	LastTmbID    string    `json:"last_tmb_id,omitempty" dynamodbav:"last_tmb_id"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// RegisterRequest is the verify-and-provision payload. The attribution fields
// are optional and persisted verbatim on the account.
type RegisterRequest struct {
	Username  string  `json:"username" validate:"required"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	Code      string  `json:"code" validate:"required"`
	InviterID *string `json:"inviter_id"`
	BdVid     *string `json:"bd_vid"`
	Msclkid   *string `json:"msclkid"`
	Sem       *string `json:"sem"`
}

// AccountDetail is the denormalized view returned after provisioning: the
// account plus its current team and membership.
type AccountDetail struct {
	Account    *Account    `json:"account"`
	Team       *Team       `json:"team"`
	Membership *TeamMember `json:"membership"`
}
