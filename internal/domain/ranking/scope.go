package ranking

// ScopeKind tells the two ranking entry modes apart.
type ScopeKind int

const (
	// ScopeGlobal is the cross-tenant consulting view.
	ScopeGlobal ScopeKind = iota
	// ScopeDeveloper restricts every read to one developer.
	ScopeDeveloper
)

// Scope is either Global() or ScopedToDeveloper(id). The zero value is Global.
type Scope struct {
	kind        ScopeKind
	developerID int64
}

// Global returns the unrestricted scope.
func Global() Scope { return Scope{kind: ScopeGlobal} }

// ScopedToDeveloper returns a tenant scope. An id <= 0 means the caller did
// not supply one; Compute rejects it with ErrMissingRequiredScope.
func ScopedToDeveloper(id int64) Scope {
	return Scope{kind: ScopeDeveloper, developerID: id}
}

// Kind returns the entry mode.
func (s Scope) Kind() ScopeKind { return s.kind }

// DeveloperID returns the tenant id for a developer scope.
func (s Scope) DeveloperID() (int64, bool) {
	if s.kind != ScopeDeveloper {
		return 0, false
	}
	return s.developerID, true
}

func (s Scope) String() string {
	if s.kind == ScopeDeveloper {
		return "developer"
	}
	return "global"
}

func (s Scope) validate() error {
	if s.kind == ScopeDeveloper && s.developerID <= 0 {
		return ErrMissingRequiredScope
	}
	return nil
}
