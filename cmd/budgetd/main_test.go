package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"budgetrack/internal/core"
	"budgetrack/internal/log"
	"budgetrack/internal/persist"
	"budgetrack/internal/persist/memory"
	"budgetrack/internal/store"
)

func TestBootstrapAdmin(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		seedUser  bool
		wantUsers int
	}{
		{"creates super admin", "root@example.com", false, 1},
		{"no email configured", "", false, 0},
		{"users already exist", "root@example.com", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New(store.Options{})
			defer st.Close()
			if tt.seedUser {
				if _, err := st.CreateUser(core.SystemActor, core.User{Name: "Existing", Email: "e@example.com", Role: core.RoleAdmin}); err != nil {
					t.Fatalf("CreateUser: %v", err)
				}
			}

			if err := bootstrapAdmin(st, tt.email, "Administrator", log.Discard()); err != nil {
				t.Fatalf("bootstrapAdmin: %v", err)
			}

			users := st.Users()
			if len(users) != tt.wantUsers {
				t.Fatalf("users = %d, want %d", len(users), tt.wantUsers)
			}
			if tt.email != "" && !tt.seedUser {
				if users[0].Role != core.RoleSuperAdmin || users[0].Initials != "A" {
					t.Errorf("bootstrapped user = %+v", users[0])
				}
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	st := store.New(store.Options{})
	defer st.Close()
	writer := persist.NewWriter(memory.New(), st, persist.WriterConfig{})
	defer writer.Close(context.Background())

	srv := httptest.NewServer(newMux(st, writer, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var h health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Status != "ok" {
		t.Errorf("status = %q", h.Status)
	}
}
