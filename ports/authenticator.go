package ports

import "context"

// Identity is the result of a successful login
type Identity struct {
	Username    string
	DisplayName string
}

// Authenticator checks dashboard credentials. It returns an UNAUTHORIZED
// AppError when the credentials are rejected.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (Identity, error)
}
