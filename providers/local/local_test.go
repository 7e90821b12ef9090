package local

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/giantswarm/oauth-core/providers"
)

func TestAuthenticate(t *testing.T) {
	auth := New(nil)
	if err := auth.AddUser("alice", "user-1", "wonderland"); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		wantID   string
		wantErr  error
	}{
		{name: "valid", username: "alice", password: "wonderland", wantID: "user-1"},
		{name: "wrong password", username: "alice", password: "looking-glass", wantErr: providers.ErrInvalidCredentials},
		{name: "unknown user", username: "bob", password: "wonderland", wantErr: providers.ErrInvalidCredentials},
		{name: "empty password", username: "alice", password: "", wantErr: providers.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := auth.Authenticate(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if id != tt.wantID {
				t.Errorf("Authenticate() = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestAddHashedUser(t *testing.T) {
	auth := New(nil)

	if err := auth.AddHashedUser("alice", "user-1", []byte("plaintext")); err == nil {
		t.Error("AddHashedUser() should reject a value that is not a bcrypt hash")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if err := auth.AddHashedUser("alice", "user-1", hash); err != nil {
		t.Fatalf("AddHashedUser() error = %v", err)
	}
	if id, err := auth.Authenticate(context.Background(), "alice", "secret"); err != nil || id != "user-1" {
		t.Errorf("Authenticate() = %q, %v", id, err)
	}
}

func TestRemoveUser(t *testing.T) {
	auth := New(nil)
	if err := auth.AddUser("alice", "user-1", "pw"); err != nil {
		t.Fatal(err)
	}
	auth.RemoveUser("alice")

	if _, err := auth.Authenticate(context.Background(), "alice", "pw"); !providers.IsInvalidCredentials(err) {
		t.Errorf("Authenticate() after RemoveUser error = %v, want invalid credentials", err)
	}
}

func TestAddUser_RequiresIdentity(t *testing.T) {
	if err := New(nil).AddUser("", "id", "pw"); err == nil {
		t.Error("AddUser() without username should fail")
	}
	if err := New(nil).AddUser("alice", "", "pw"); err == nil {
		t.Error("AddUser() without user id should fail")
	}
}
