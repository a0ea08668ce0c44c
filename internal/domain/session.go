package domain

import "time"

// Session binds an opaque token to (account, team, membership). Root sessions
// are never produced by the registration path.
type Session struct {
	SessionID        string    `json:"id" dynamodbav:"session_id"`
	AccountID        string    `json:"account_id" dynamodbav:"account_id"`
	TeamID           string    `json:"team_id" dynamodbav:"team_id"`
	TmbID            string    `json:"tmb_id" dynamodbav:"tmb_id"`
	Root             bool      `json:"root" dynamodbav:"root"`
	SourceIP         string    `json:"source_ip" dynamodbav:"source_ip"`
	Enable           bool      `json:"enable" dynamodbav:"enable"`
	RefreshToken     string    `json:"-" dynamodbav:"refresh_token"`
	RefreshExpiresAt int64     `json:"-" dynamodbav:"refresh_expires_at"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated" dynamodbav:"updated_at"`
	Account          *Account  `json:"account,omitempty" dynamodbav:"-"`
}
