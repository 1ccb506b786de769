package policy

import (
	"errors"
	"strings"
)

var ErrUnauthorized = errors.New("operator is not approved")

// Allowlist is the set of operator ids permitted to manage listings. An empty
// allowlist permits everyone, matching the development default.
type Allowlist struct {
	members map[string]struct{}
}

func NewAllowlist(ids []string) *Allowlist {
	members := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		members[id] = struct{}{}
	}
	return &Allowlist{members: members}
}

func (a *Allowlist) IsAuthorized(userID string) bool {
	if a == nil || len(a.members) == 0 {
		return true
	}
	_, ok := a.members[strings.TrimSpace(userID)]
	return ok
}

func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.members)
}
