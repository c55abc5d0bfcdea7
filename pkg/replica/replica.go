// pkg/replica/replica.go
package replica

// Role identifies which side of the connection a process plays
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

// Authority carries the replication role for a process. Components
// receive it explicitly instead of consulting a global.
type Authority struct {
	role Role
}

// NewAuthority creates an authority context with the given role
func NewAuthority(role Role) *Authority {
	return &Authority{role: role}
}

// IsServer reports whether this process may mutate replicated state
func (a *Authority) IsServer() bool {
	return a.role == RoleServer
}

// Role returns the process role
func (a *Authority) Role() Role {
	return a.role
}
