package common

const (
	// AuthorizationHeaderName carries the bearer token on authenticated calls.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token inside the Authorization header.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName correlates a client call with server-side logs.
	RequestIDHeaderName = "X-Request-ID"

	// APIBasePath is the route prefix of every credential store operation.
	APIBasePath = "/api/auth"
)
