package utils

import (
	"testing"
)

func TestGetUsername(t *testing.T) {
	username, err := GetUsername()
	if err != nil {
		t.Fatalf("GetUsername failed: %v", err)
	}
	if username == "" {
		t.Fatal("Expected non-empty username")
	}
}

func TestGetHostname(t *testing.T) {
	hostname, err := GetHostname()
	if err != nil {
		t.Fatalf("GetHostname failed: %v", err)
	}
	if hostname == "" {
		t.Fatal("Expected non-empty hostname")
	}
}
