package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access forbidden")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidInput       = errors.New("invalid input")
)

// ErrTokenInvalid is the parent of every token verification failure.
var ErrTokenInvalid = errors.New("invalid token")

var (
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrTokenInvalid)
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	ErrTokenKind      = fmt.Errorf("%w: wrong token kind", ErrTokenInvalid)
	ErrTokenRevoked   = fmt.Errorf("%w: revoked", ErrTokenInvalid)
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrMediaNotFound    = errors.New("file not found")
	ErrUnsupportedMedia = errors.New("unsupported media type")
)
