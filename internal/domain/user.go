package domain

import "time"

// Account roles.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

type User struct {
	UserID         string     `json:"id" dynamodbav:"user_id"`
	Email          string     `json:"email" dynamodbav:"email"`
	PasswordHash   string     `json:"-" dynamodbav:"password_hash"`
	Role           string     `json:"role" dynamodbav:"role"`
	FirstName      string     `json:"first_name" dynamodbav:"first_name"`
	LastName       string     `json:"last_name" dynamodbav:"last_name"`
	Phone          *string    `json:"phone_number" dynamodbav:"phone_number"`
	Country        string     `json:"country" dynamodbav:"country"`
	Location       string     `json:"location" dynamodbav:"location"`
	DateOfBirth    *time.Time `json:"date_of_birth" dynamodbav:"date_of_birth"`
	Gender         string     `json:"gender,omitempty" dynamodbav:"gender"`
	Bio            string     `json:"bio" dynamodbav:"bio"`
	AvatarKey      string     `json:"-" dynamodbav:"avatar_key"`
	AvatarURL      string     `json:"profile_picture,omitempty" dynamodbav:"-"`
	Verified       bool       `json:"is_verified" dynamodbav:"verified"`
	PhoneConfirmed bool       `json:"phone_confirmed" dynamodbav:"phone_confirmed"`
	LastSeen       *time.Time `json:"last_seen" dynamodbav:"last_seen"`
	Enable         bool       `json:"enable" dynamodbav:"enable"`
	CreatedAt      time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Country   string `json:"country"`
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Phone       *string `json:"phone_number"`
	Country     *string `json:"country"`
	Location    *string `json:"location"`
	DateOfBirth *string `json:"date_of_birth"` // expected format: YYYY-MM-DD
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Bio         *string `json:"bio"`
}
