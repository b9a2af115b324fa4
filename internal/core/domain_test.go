package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDateJSON(t *testing.T) {
	var v struct {
		Start Date `json:"start"`
		End   Date `json:"end"`
		Empty Date `json:"empty"`
	}
	in := `{"start":"2025-01-31","end":"2025-03-01T10:00:00Z","empty":""}`
	if err := json.Unmarshal([]byte(in), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Start != NewDate(2025, 1, 31) || v.End != NewDate(2025, 3, 1) || !v.Empty.IsEmpty() {
		t.Fatalf("unexpected dates %+v", v)
	}
	out, _ := json.Marshal(v)
	if string(out) != `{"start":"2025-01-31","end":"2025-03-01","empty":""}` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestValidateBudgetCodeFormat(t *testing.T) {
	for _, code := range []string{"1-2345", "10-1"} {
		if err := ValidateBudgetCodeFormat(code); err != nil {
			t.Fatalf("%q expected ok, got %v", code, err)
		}
	}
	for _, code := range []string{"", "12345", "a-1", "1-", "1-2-3", " 1-2"} {
		if err := ValidateBudgetCodeFormat(code); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q expected validation error, got %v", code, err)
		}
	}
}

func TestEntryValidate(t *testing.T) {
	good := BudgetEntry{ProjectID: "p", Description: "Laptop", Amount: NewMoney(10), Type: EntryExpense}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []BudgetEntry{
		{Description: "x", Amount: NewMoney(1), Type: EntryExpense},
		{ProjectID: "p", Amount: NewMoney(1), Type: EntryExpense},
		{ProjectID: "p", Description: "x", Amount: Money{}, Type: EntryExpense},
		{ProjectID: "p", Description: "x", Amount: NewMoney(-1), Type: EntryIncome},
		{ProjectID: "p", Description: "x", Amount: NewMoney(1), Type: "refund"},
	}
	for i, e := range bads {
		if err := e.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestProjectValidate(t *testing.T) {
	p := Project{Name: "Website", Status: StatusActive, Priority: PriorityHigh}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	p.StartDate, p.EndDate = NewDate(2025, 6, 1), NewDate(2025, 5, 1)
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error for end before start")
	}
	p.EndDate = Date{}
	p.Status = "archived"
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	s.BudgetAlertThreshold = 101
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for threshold above 100")
	}
}

func TestDeriveInitials(t *testing.T) {
	cases := map[string]string{
		"Ada Lovelace":          "AL",
		"grace brewster hopper": "GB",
		"Émile":                 "É",
		"":                      "",
	}
	for in, want := range cases {
		if got := DeriveInitials(in); got != want {
			t.Fatalf("DeriveInitials(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProjectPatchApply(t *testing.T) {
	p := Project{Name: "A", AssignedUsers: []string{"u1"}, BudgetCodes: []string{"c1"}}
	ProjectPatch{Name: Ptr("B"), AssignedUsers: []string{"u2", "u2", ""}}.Apply(&p)
	if p.Name != "B" || len(p.AssignedUsers) != 1 || p.AssignedUsers[0] != "u2" {
		t.Fatalf("unexpected project %+v", p)
	}
	if len(p.BudgetCodes) != 1 {
		t.Fatalf("nil slice in patch must leave budget codes untouched")
	}
	ProjectPatch{BudgetCodes: []string{}}.Apply(&p)
	if len(p.BudgetCodes) != 0 {
		t.Fatalf("empty slice in patch must clear budget codes")
	}
}

func TestCloneIsolation(t *testing.T) {
	p := Project{AssignedUsers: []string{"u1"}}
	c := p.Clone()
	c.AssignedUsers[0] = "x"
	if p.AssignedUsers[0] != "u1" {
		t.Fatalf("clone shares assigned users")
	}

	n := Notification{Data: map[string]any{"k": 1}}
	nc := n.Clone()
	nc.Data["k"] = 2
	if n.Data["k"] != 1 {
		t.Fatalf("clone shares data map")
	}
}
