// Package auth provides token issuance, verification, and the credential
// store behind the login endpoint.
package auth

import "errors"

// ErrInvalidCredentials is returned for every authentication failure.
// Expired, malformed, and wrong-password cases are deliberately not
// distinguished to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Permission is a named capability gating an operation
type Permission string

const (
	PermissionRead   Permission = "read"   // Can view records
	PermissionWrite  Permission = "write"  // Can create and update records
	PermissionDelete Permission = "delete" // Can delete records
	PermissionAdmin  Permission = "admin"  // Full control
)

// Identity holds the verified subject and its permission set
type Identity struct {
	Username    string       `json:"username"`
	Permissions []Permission `json:"permissions"`
}

// HasPermission checks whether the identity carries a specific permission.
// The admin permission implies all others.
func (i *Identity) HasPermission(perm Permission) bool {
	for _, p := range i.Permissions {
		if p == PermissionAdmin || p == perm {
			return true
		}
	}
	return false
}

// PermissionStrings returns the permission set as plain strings
func (i *Identity) PermissionStrings() []string {
	out := make([]string, len(i.Permissions))
	for idx, p := range i.Permissions {
		out[idx] = string(p)
	}
	return out
}
