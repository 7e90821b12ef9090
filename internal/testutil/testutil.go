package testutil

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/giantswarm/oauth-core/storage"
)

// Test fixtures shared by package tests
const (
	TestClientID     = "X"
	TestClientSecret = "Y"
	TestClientName   = "Test Client"
	TestRedirectURI  = "https://app.example.com/callback"
	TestOtherURI     = "https://app.example.com/other"
)

// MockTime provides a controllable time source for deterministic testing
type MockTime struct {
	now time.Time
}

// NewMockTime creates a new mock time provider
func NewMockTime(t time.Time) *MockTime {
	return &MockTime{now: t}
}

// Now returns the current mock time
func (m *MockTime) Now() time.Time {
	return m.now
}

// Advance moves the mock time forward by the given duration
func (m *MockTime) Advance(d time.Duration) {
	m.now = m.now.Add(d)
}

// Set sets the mock time to a specific value
func (m *MockTime) Set(t time.Time) {
	m.now = t
}

// GenerateRandomString generates a URL-safe random string of the given length
func GenerateRandomString(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate random string: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length]
}

// TestScopes returns the scope catalogue used across tests
func TestScopes() []*storage.Scope {
	return []*storage.Scope{
		{Scope: "read", Name: "Read", Description: "Read access"},
		{Scope: "write", Name: "Write", Description: "Write access"},
		{Scope: "admin", Name: "Admin", Description: "Administrative access"},
	}
}

// TestEndpoints returns the redirect URIs registered for the test client
func TestEndpoints() []storage.ClientEndpoint {
	return []storage.ClientEndpoint{
		{URI: TestRedirectURI, IsDefault: true},
		{URI: TestOtherURI},
	}
}

// Seed registers the test client and scope catalogue in adapter
func Seed(t *testing.T, adapter storage.Adapter) {
	t.Helper()
	ctx := context.Background()

	if _, err := adapter.Clients().Create(ctx, TestClientID, TestClientSecret, TestClientName, TestEndpoints(), false); err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	for _, s := range TestScopes() {
		if err := adapter.Scopes().Create(ctx, s); err != nil {
			t.Fatalf("failed to seed scope %s: %v", s.Scope, err)
		}
	}
}
