package db

import (
	"net/url"
	"testing"

	"github.com/pennywise-app/apiserver/config"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		sslmode string
	}{
		{
			name:    "plain",
			cfg:     config.DatabaseConfig{Host: "localhost", Port: 5432, User: "pw", Password: "p@ss/word", DBName: "ledger"},
			sslmode: "disable",
		},
		{
			name:    "ssl",
			cfg:     config.DatabaseConfig{Host: "db", Port: 6543, User: "pw", Password: "x", DBName: "ledger", UseSSL: true},
			sslmode: "require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(DSN(tt.cfg))
			if err != nil {
				t.Fatalf("parse dsn: %v", err)
			}
			if u.Scheme != "postgres" {
				t.Fatalf("unexpected scheme %q", u.Scheme)
			}
			if u.Hostname() != tt.cfg.Host || u.Port() == "" {
				t.Fatalf("unexpected host %q", u.Host)
			}
			if pw, _ := u.User.Password(); pw != tt.cfg.Password {
				t.Fatalf("password not preserved: %q", pw)
			}
			if u.Path != "/"+tt.cfg.DBName {
				t.Fatalf("unexpected path %q", u.Path)
			}
			if got := u.Query().Get("sslmode"); got != tt.sslmode {
				t.Fatalf("expected sslmode %s, got %s", tt.sslmode, got)
			}
		})
	}
}
