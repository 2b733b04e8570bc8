package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// MaxPasswordBytes is the longest password bcrypt can take into account.
const MaxPasswordBytes = 72
