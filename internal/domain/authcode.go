package domain

// CodeType categorizes a verification code. Each type has its own TTL and
// code length (captcha codes are short enough to retype from an image).
type CodeType string

const (
	CodeTypeCaptcha  CodeType = "captcha"
	CodeTypeRegister CodeType = "register"
	CodeTypeEmail    CodeType = "email"
	CodeTypePhone    CodeType = "phone"
)

// Valid reports whether t is a known code type.
func (t CodeType) Valid() bool {
	switch t {
	case CodeTypeCaptcha, CodeTypeRegister, CodeTypeEmail, CodeTypePhone:
		return true
	}
	return false
}

// AuthCode is one outstanding verification code.
// PK: identifier, SK: type — at most one live code per (identifier, type);
// issuing again for the same pair overwrites the previous entry.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type AuthCode struct {
	Identifier string `json:"identifier" dynamodbav:"identifier"`
	Type       string `json:"type" dynamodbav:"type"`
	Code       string `json:"code" dynamodbav:"code"`
	ExpiresAt  int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
