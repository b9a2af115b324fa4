package remote

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"budgetrack/internal/core"
	"budgetrack/internal/persist"
)

// openTestClient connects to REMOTE_TEST_DATABASE_URL or skips the test.
func openTestClient(t *testing.T) *Client {
	t.Helper()
	dsn := os.Getenv("REMOTE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("REMOTE_TEST_DATABASE_URL not set")
	}

	c, err := Open(context.Background(), dsn, DefaultPoolConfig(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestTables_ProjectCascadeAndCodeSetNull(t *testing.T) {
	c := openTestClient(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	code := core.BudgetCode{ID: uuid.NewString(), Code: "IT-" + uuid.NewString()[:8], Name: "IT", IsActive: true, CreatedAt: now, UpdatedAt: now}
	project := core.Project{ID: uuid.NewString(), Name: "Remote", Status: core.StatusActive, Priority: core.PriorityLow, CreatedAt: now, UpdatedAt: now}
	entry := core.BudgetEntry{
		ID:           uuid.NewString(),
		ProjectID:    project.ID,
		BudgetCodeID: code.ID,
		Amount:       core.NewMoney(10),
		Type:         core.EntryExpense,
		Date:         core.DateOf(now),
		CreatedAt:    now,
	}

	if err := c.BudgetCodes.Create(ctx, code); err != nil {
		t.Fatalf("create code: %v", err)
	}
	if err := c.Projects.Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := c.BudgetEntries.Create(ctx, entry); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	if err := c.BudgetCodes.Delete(ctx, code.ID); err != nil {
		t.Fatalf("delete code: %v", err)
	}
	got := findEntry(t, c, entry.ID)
	if got == nil || got.BudgetCodeID != "" {
		t.Fatalf("entry after code delete = %+v, want kept with no code", got)
	}

	if err := c.Projects.Delete(ctx, project.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if got := findEntry(t, c, entry.ID); got != nil {
		t.Errorf("entry should be removed with its project, got %+v", got)
	}
}

func TestTables_EntryWithoutProjectIsRejected(t *testing.T) {
	c := openTestClient(t)

	err := c.BudgetEntries.Create(context.Background(), core.BudgetEntry{
		ID:        uuid.NewString(),
		ProjectID: uuid.NewString(),
		Amount:    core.NewMoney(1),
		Type:      core.EntryExpense,
		Date:      core.NewDate(2024, 1, 1),
	})
	var pe *persist.Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *persist.Error, got %v", err)
	}
}

func findEntry(t *testing.T, c *Client, id string) *core.BudgetEntry {
	t.Helper()
	entries, err := c.BudgetEntries.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i]
		}
	}
	return nil
}
