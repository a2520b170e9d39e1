package common

// AuthorizationHeaderName carries the bearer token on protected requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// DefaultHistoryLimit caps the number of records returned by history.
const DefaultHistoryLimit = 100
