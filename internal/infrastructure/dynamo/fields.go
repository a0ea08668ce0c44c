package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable       = "enable"
	fieldLastTmbID    = "last_tmb_id"
	fieldRequestCount = "request_count"
	fieldExpiresAt    = "expires_at"
)
