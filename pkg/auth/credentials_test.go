package auth

import (
	"errors"
	"testing"
)

func TestDemoCredentialStore_Verify(t *testing.T) {
	store := NewDemoCredentialStore()

	identity, err := store.Verify("admin", "admin123")
	if err != nil {
		t.Fatalf("Verify(admin) error = %v", err)
	}
	if !identity.HasPermission(PermissionDelete) {
		t.Error("admin should have delete permission")
	}

	identity, err = store.Verify("user", "user123")
	if err != nil {
		t.Fatalf("Verify(user) error = %v", err)
	}
	if identity.HasPermission(PermissionDelete) {
		t.Error("user should not have delete permission")
	}
	if !identity.HasPermission(PermissionWrite) {
		t.Error("user should have write permission")
	}
}

func TestDemoCredentialStore_WrongPassword(t *testing.T) {
	store := NewDemoCredentialStore()

	if _, err := store.Verify("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Verify() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestDemoCredentialStore_UnknownUser(t *testing.T) {
	store := NewDemoCredentialStore()

	if _, err := store.Verify("nobody", "admin123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Verify() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestStaticCredentialStore_AddUser(t *testing.T) {
	store := NewStaticCredentialStore()
	if err := store.AddUser("svc", "s3cret-value", []Permission{PermissionRead}); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	identity, err := store.Verify("svc", "s3cret-value")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.Username != "svc" {
		t.Errorf("Username = %q, want %q", identity.Username, "svc")
	}
}
