package domain

import "time"

// File records metadata for an uploaded avatar object stored in S3.
type File struct {
	FileID      string    `json:"id" dynamodbav:"file_id"`
	Object      string    `json:"object" dynamodbav:"object"`
	Size        int64     `json:"size" dynamodbav:"size"`
	ContentType string    `json:"content_type" dynamodbav:"content_type"`
	Name        string    `json:"name" dynamodbav:"name"`
	OwnerUserID string    `json:"owner_user_id" dynamodbav:"owner_user_id"`
	Enable      bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" dynamodbav:"updated_at"`
}
