package shared

import (
	"context"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("SHARED_TEST_VALUE", "set")

	if got := GetEnvOrDefault("SHARED_TEST_VALUE", "default"); got != "set" {
		t.Errorf("GetEnvOrDefault() = %q, want set", got)
	}
	if got := GetEnvOrDefault("SHARED_TEST_MISSING", "default"); got != "default" {
		t.Errorf("GetEnvOrDefault() = %q, want default", got)
	}
}

func TestGetEnvBoolOrDefault(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"1", false, true},
		{"no", true, false},
	}

	for _, tt := range tests {
		t.Setenv("SHARED_TEST_BOOL", tt.value)
		if got := GetEnvBoolOrDefault("SHARED_TEST_BOOL", tt.def); got != tt.want {
			t.Errorf("GetEnvBoolOrDefault(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
		}
	}
}

func TestConnectRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := ConnectRedis(ctx, "127.0.0.1:1")
	if err == nil {
		client.Close()
		t.Fatal("ConnectRedis() to closed port should fail")
	}
	if client != nil {
		t.Error("ConnectRedis() returned client on error")
	}
}
