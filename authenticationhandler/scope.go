// authenticationhandler/scope.go
package authenticationhandler

import "time"

// ScopeKind names the credential class of a token.
type ScopeKind string

const (
	ScopeApp    ScopeKind = "app"
	ScopeTenant ScopeKind = "tenant"
	ScopeUser   ScopeKind = "user"
)

// UserContext carries the artifacts a user token exchange needs. The caller
// obtains them out of band, typically from an OAuth redirect.
type UserContext struct {
	UserID            string // UserID partitions the cache. Required.
	AuthorizationCode string // AuthorizationCode is single use.
	RefreshToken      string // RefreshToken from a previous exchange, if any.
}

// TokenScope identifies which token a request needs and which cache
// partition holds it.
type TokenScope struct {
	Kind      ScopeKind
	TenantKey string
	User      UserContext
}

// AppScope returns the application scope.
func AppScope() TokenScope {
	return TokenScope{Kind: ScopeApp}
}

// TenantScope returns the tenant scope. Self-built apps pass an empty key.
func TenantScope(tenantKey string) TokenScope {
	return TokenScope{Kind: ScopeTenant, TenantKey: tenantKey}
}

// UserScope returns the scope of a single user.
func UserScope(user UserContext) TokenScope {
	return TokenScope{Kind: ScopeUser, User: user}
}

// Key returns the cache partition key of the scope.
func (s TokenScope) Key() string {
	switch s.Kind {
	case ScopeTenant:
		if s.TenantKey == "" {
			return string(ScopeTenant)
		}
		return string(ScopeTenant) + ":" + s.TenantKey
	case ScopeUser:
		return string(ScopeUser) + ":" + s.User.UserID
	default:
		return string(s.Kind)
	}
}

// identity returns the scope without the one-time exchange artifacts.
func (s TokenScope) identity() TokenScope {
	return TokenScope{Kind: s.Kind, TenantKey: s.TenantKey, User: UserContext{UserID: s.User.UserID}}
}

// String implements fmt.Stringer.
func (s TokenScope) String() string {
	return s.Key()
}

// Token is a snapshot of a cached access token. It is handed out by value.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Scope     TokenScope
}

// TTL returns the full lifetime the token was issued with.
func (t Token) TTL() time.Duration {
	return t.ExpiresAt.Sub(t.IssuedAt)
}

// ValidAt reports whether the token may still be handed out at now, given
// the refresh safety margin.
func (t Token) ValidAt(now time.Time, safetyMargin time.Duration) bool {
	return t.Value != "" && now.Before(t.ExpiresAt.Add(-safetyMargin))
}

// FetchedToken is what a TokenProvider returns from one exchange.
type FetchedToken struct {
	Value        string
	ValidFor     time.Duration
	RefreshToken string // RefreshToken is only set by user exchanges.
}
