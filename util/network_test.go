package util

import (
	"net"
	"testing"
)

func TestResolveAddr(t *testing.T) {
	tests := []struct {
		host    string
		port    int
		noDNS   bool
		want    string
		wantErr bool
	}{
		{"127.0.0.1", 5001, true, "127.0.0.1:5001", false},
		{"::1", 443, true, "[::1]:443", false},
		{"example.com", 80, false, "example.com:80", false},
		{"example.com", 80, true, "", true}, // hostname with noDNS
	}

	for _, tt := range tests {
		got, err := ResolveAddr(tt.host, tt.port, tt.noDNS)
		if (err != nil) != tt.wantErr {
			t.Errorf("ResolveAddr(%q,%d,%v) err=%v wantErr=%v",
				tt.host, tt.port, tt.noDNS, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveAddr(%q,%d,%v) = %q, want %q",
				tt.host, tt.port, tt.noDNS, got, tt.want)
		}
	}
}

func TestFormatAddr(t *testing.T) {
	if got := FormatAddr("1.2.3.4", 22); got != "1.2.3.4:22" {
		t.Errorf("got %q, want %q", got, "1.2.3.4:22")
	}
}

func TestFindFreePort(t *testing.T) {
	port, err := FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	if port < 1 || port > 65535 {
		t.Errorf("port %d out of range", port)
	}

	// The port must be released again.
	ln, err := net.Listen("tcp", FormatAddr("127.0.0.1", port))
	if err != nil {
		t.Fatalf("port %d not reusable: %v", port, err)
	}
	ln.Close()
}
