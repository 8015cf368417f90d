// Package account holds the identity types the auth provider returns.
package account

// Identity is the opaque record the identity provider hands back on lookup
// or creation. The provider owns the durable record; we only keep this
// reference for the lifetime of a browser session.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}
