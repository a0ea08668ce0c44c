package domain

import "time"

// Team membership roles.
const (
	TeamRoleOwner  = "owner"
	TeamRoleMember = "member"
)

// Team is the organizational unit auto-created for every new account, so an
// account always belongs to at least one team.
type Team struct {
	TeamID         string    `json:"id" dynamodbav:"team_id"`
	Name           string    `json:"name" dynamodbav:"name"`
	OwnerAccountID string    `json:"owner_account_id" dynamodbav:"owner_account_id"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}

// TeamMember links an account to a team. The default membership is created in
// the same transaction as the account; an account without a membership must
// never be observable.
type TeamMember struct {
	TmbID     string    `json:"id" dynamodbav:"tmb_id"`
	TeamID    string    `json:"team_id" dynamodbav:"team_id"`
	AccountID string    `json:"account_id" dynamodbav:"account_id"`
	Role      string    `json:"role" dynamodbav:"role"`
	Status    string    `json:"status" dynamodbav:"status"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}
