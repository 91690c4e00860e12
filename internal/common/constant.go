// Package common contains shared constants and sentinel errors used across
// bankauth components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// MaxActiveTokensPerUser caps the number of simultaneously active refresh
// tokens a single user may hold.
const MaxActiveTokensPerUser = 5
