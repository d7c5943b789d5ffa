package http

import (
	"github.com/teachmatch/accounts-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/teachmatch/accounts-api/internal/infrastructure/jwt"
	s3infra "github.com/teachmatch/accounts-api/internal/infrastructure/s3"
	"github.com/teachmatch/accounts-api/internal/infrastructure/smtp"
	"github.com/teachmatch/accounts-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	VerificationRepo *dynamo.VerificationRepo
	FileRepo         *dynamo.FileRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
}
