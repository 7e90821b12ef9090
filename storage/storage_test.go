package storage

import (
	"errors"
	"testing"
	"time"
)

func TestResolveRedirectURI(t *testing.T) {
	endpoints := []ClientEndpoint{
		{URI: "https://a.example/cb", IsDefault: true},
		{URI: "https://b.example/cb"},
	}

	tests := []struct {
		name      string
		endpoints []ClientEndpoint
		requested string
		wantURI   string
		wantOK    bool
	}{
		{"no request uses default", endpoints, "", "https://a.example/cb", true},
		{"exact match", endpoints, "https://b.example/cb", "https://b.example/cb", true},
		{"mismatch", endpoints, "https://evil.example/cb", "", false},
		{"no default", []ClientEndpoint{{URI: "https://b.example/cb"}}, "", "", true},
		{"no endpoints", nil, "", "", true},
		{
			name: "several defaults picks first in order",
			endpoints: []ClientEndpoint{
				{URI: "https://z.example/cb", IsDefault: true},
				{URI: "https://m.example/cb", IsDefault: true},
			},
			wantURI: "https://m.example/cb",
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, ok := ResolveRedirectURI(tt.endpoints, tt.requested)
			if uri != tt.wantURI || ok != tt.wantOK {
				t.Errorf("ResolveRedirectURI() = (%q, %v), want (%q, %v)", uri, ok, tt.wantURI, tt.wantOK)
			}
		})
	}
}

func TestScopeSet(t *testing.T) {
	set := NewScopeSet(
		&Scope{Scope: "write"},
		&Scope{Scope: "read", Name: "Read"},
		&Scope{Scope: "read", Name: "Read again"},
		nil,
	)

	if len(set) != 2 {
		t.Fatalf("len(set) = %d, want 2", len(set))
	}
	if !set.Has("read") || set.Has("admin") {
		t.Error("Has() returned wrong membership")
	}
	if got := set.String(" "); got != "read write" {
		t.Errorf("String() = %q, want %q", got, "read write")
	}
	if set["read"].Name != "Read again" {
		t.Errorf("duplicate id should replace, got %q", set["read"].Name)
	}
}

func TestToken_Scopeable(t *testing.T) {
	tok := &Token{Token: "abc"}

	if tok.HasScope("read") {
		t.Error("new token should have no scopes")
	}
	if tok.Scopes() == nil {
		t.Error("Scopes() should never be nil")
	}

	tok.AttachScopes(NewScopeSet(&Scope{Scope: "read"}))
	tok.AttachScopes(NewScopeSet(&Scope{Scope: "write"}))

	if !tok.HasScope("read") || !tok.HasScope("write") {
		t.Errorf("scopes = %v, want read and write", tok.Scopes().IDs())
	}
	if s, ok := tok.Scope("write"); !ok || s.Scope != "write" {
		t.Error("Scope(write) not found")
	}
}

func TestToken_IsExpired(t *testing.T) {
	now := time.Unix(1000, 0)

	tests := []struct {
		name    string
		expires int64
		want    bool
	}{
		{"future", 1001, false},
		{"exactly now", 1000, true},
		{"past", 999, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := &Token{Expires: tt.expires}
			if got := tok.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
			code := &AuthorizationCode{Expires: tt.expires}
			if got := code.IsExpired(now); got != tt.want {
				t.Errorf("AuthorizationCode.IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTables(t *testing.T) {
	tables := DefaultTables()
	if got := tables.Name(TableTokens); got != "oauth_tokens" {
		t.Errorf("Name(tokens) = %q, want %q", got, "oauth_tokens")
	}

	merged, err := tables.Merge(map[string]string{TableTokens: "access_tokens"})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got := merged.Name(TableTokens); got != "access_tokens" {
		t.Errorf("merged Name(tokens) = %q, want %q", got, "access_tokens")
	}
	if got := tables.Name(TableTokens); got != "oauth_tokens" {
		t.Errorf("Merge() must not modify the receiver, got %q", got)
	}

	if _, err := tables.Merge(map[string]string{"users": "x"}); err == nil {
		t.Error("Merge() expected error for unknown table")
	}
	if _, err := tables.Merge(map[string]string{TableScopes: ""}); err == nil {
		t.Error("Merge() expected error for empty name")
	}
}

func TestVerifyClient(t *testing.T) {
	hash, err := HashSecret("secret")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	client := &Client{ID: "c1", Secret: hash, Name: "Test"}
	endpoints := []ClientEndpoint{{URI: "https://app.example/cb", IsDefault: true}}

	tests := []struct {
		name        string
		client      *Client
		secret      string
		redirectURI string
		wantErr     error
		wantURI     string
	}{
		{name: "unknown client", client: nil, secret: "secret", wantErr: ErrNotFound},
		{name: "wrong secret", client: client, secret: "nope", wantErr: ErrInvalidCredentials},
		{name: "secret only", client: client, secret: "secret", wantURI: "https://app.example/cb"},
		{name: "secret and matching uri", client: client, secret: "secret", redirectURI: "https://app.example/cb", wantURI: "https://app.example/cb"},
		{name: "mismatched uri", client: client, secret: "secret", redirectURI: "https://evil.example", wantErr: ErrInvalidCredentials},
		{name: "uri only", client: client, redirectURI: "https://app.example/cb", wantURI: "https://app.example/cb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyClient(tt.client, endpoints, tt.secret, tt.redirectURI)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("VerifyClient() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("VerifyClient() error = %v", err)
			}
			if got.RedirectURI != tt.wantURI {
				t.Errorf("RedirectURI = %q, want %q", got.RedirectURI, tt.wantURI)
			}
			if client.RedirectURI != "" {
				t.Error("VerifyClient() must not modify the stored client")
			}
		})
	}
}
