package domain

// UserVerification stores phone-confirmation OTPs.
// PK: user_id, SK: type ("phone").
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
//
// Email flows do not use this table: their tokens are stateless and
// re-derived from account state on every check.
type UserVerification struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Type      string `json:"type" dynamodbav:"type"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
