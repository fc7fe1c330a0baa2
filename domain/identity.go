// Package domain contains core concepts of the messaging relay.
// No runtime, network, or UI logic should be added here.
package domain

type UserID string

type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)

// Identity is created by the account system and read-only to the relay.
type Identity struct {
	ID          UserID
	DisplayName string
	AvatarRef   string
	Role        Role
}
