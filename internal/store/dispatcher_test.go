package store

import (
	"errors"
	"testing"

	"budgetrack/internal/core"
	"budgetrack/internal/policy"
)

type want map[string]int

func (f *fixture) assertCounts(t *testing.T, typ core.NotificationType, w want) {
	t.Helper()
	users := map[string]string{"admin": f.admin.ID, "alice": f.alice.ID, "bob": f.bob.ID}
	for name, n := range w {
		if got := f.count(users[name], typ); got != n {
			t.Errorf("%s for %s = %d, want %d", typ, name, got, n)
		}
	}
}

func TestProjectNotifications(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.project(100, f.alice.ID)

	f.assertCounts(t, core.NotifyProjectCreated, want{"admin": 0, "alice": 1, "bob": 1})
	f.assertCounts(t, core.NotifyUserAssigned, want{"alice": 1, "bob": 0})

	if _, err := f.s.UpdateProject(f.alice, p.ID, core.ProjectPatch{Status: core.Ptr(core.StatusCompleted)}); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	f.assertCounts(t, core.NotifyProjectUpdated, want{"admin": 1, "alice": 0, "bob": 1})
	f.assertCounts(t, core.NotifyProjectCompleted, want{"admin": 1, "alice": 1, "bob": 1})
	f.assertCounts(t, core.NotifyBudgetAlert, want{"admin": 0, "alice": 0, "bob": 0})

	// Saving an already completed project is not a transition.
	if _, err := f.s.UpdateProject(f.alice, p.ID, core.ProjectPatch{Name: core.Ptr("Renamed")}); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	f.assertCounts(t, core.NotifyProjectUpdated, want{"admin": 2, "bob": 2})
	f.assertCounts(t, core.NotifyProjectCompleted, want{"admin": 1, "alice": 1, "bob": 1})

	if _, err := f.s.UpdateProject(f.admin, p.ID, core.ProjectPatch{AssignedUsers: []string{f.alice.ID, f.bob.ID}}); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	f.assertCounts(t, core.NotifyUserAssigned, want{"alice": 1, "bob": 1})

	if err := f.s.DeleteProject(f.admin, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	f.assertCounts(t, core.NotifyProjectUpdated, want{"admin": 2, "alice": 2, "bob": 4})

	last := f.s.Notifications(f.bob.ID)[0]
	if last.Title != "Project Deleted" || last.Data[core.DataProjectID] != p.ID {
		t.Errorf("delete notification = %+v", last)
	}
}

func TestProjectBudgetAlertRefires(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.project(100)
	f.expense(p.ID, "", 90)

	// Entries alone do not raise the project alert.
	f.assertCounts(t, core.NotifyBudgetAlert, want{"admin": 0, "alice": 0, "bob": 0})

	for i := 0; i < 2; i++ {
		if _, err := f.s.UpdateProject(f.admin, p.ID, core.ProjectPatch{Description: core.Ptr("tweak")}); err != nil {
			t.Fatalf("UpdateProject: %v", err)
		}
	}
	f.assertCounts(t, core.NotifyBudgetAlert, want{"admin": 2, "alice": 2, "bob": 2})

	alert := f.s.Notifications(f.alice.ID)[0]
	if alert.Type != core.NotifyBudgetAlert {
		t.Fatalf("newest notification = %s, want budget_alert", alert.Type)
	}
	if alert.Data[core.DataPercentage] != 90.0 || alert.Data[core.DataBudget] != 100.0 || alert.Data[core.DataSpent] != 90.0 {
		t.Errorf("alert data = %v", alert.Data)
	}
	if alert.ActionURL != "/projects/"+p.ID {
		t.Errorf("actionUrl = %q", alert.ActionURL)
	}
}

func TestThresholdFollowsSettings(t *testing.T) {
	f := newFixture(t, Options{})
	if _, err := f.s.UpdateSettings(f.admin, core.SettingsPatch{BudgetAlertThreshold: core.Ptr(95.0)}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	p := f.project(0)
	c := f.code("12-1", 100)
	f.expense(p.ID, c.ID, 90)
	f.assertCounts(t, core.NotifyBudgetCodeAlert, want{"bob": 0})

	f.expense(p.ID, c.ID, 5)
	f.assertCounts(t, core.NotifyBudgetCodeAlert, want{"bob": 1})
}

func TestEntryAddedRecipients(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.project(1000, f.alice.ID, f.bob.ID)

	f.entry(f.alice, p.ID, "", core.EntryExpense, 10)
	f.assertCounts(t, core.NotifyEntryAdded, want{"admin": 1, "alice": 0, "bob": 1})

	f.entry(f.admin, p.ID, "", core.EntryIncome, 10)
	f.assertCounts(t, core.NotifyEntryAdded, want{"admin": 1, "alice": 1, "bob": 2})

	n := f.s.Notifications(f.alice.ID)[0]
	if n.Data[core.DataType] != "income" || n.Data[core.DataAmount] != 10.0 {
		t.Errorf("entry notification data = %v", n.Data)
	}
}

func TestNewUserNotifiesAdmins(t *testing.T) {
	f := newFixture(t, Options{})
	second := f.user("Second Admin", "second@example.com", core.RoleAdmin)
	before := f.count(f.admin.ID, core.NotifyUserAssigned)

	carol, err := f.s.CreateUser(f.admin, core.User{Name: "carol king", Email: "carol@example.com", Role: core.RoleUser})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if carol.Initials != "CK" {
		t.Errorf("initials = %q, want CK", carol.Initials)
	}

	if got := f.count(f.admin.ID, core.NotifyUserAssigned); got != before {
		t.Errorf("actor notified about own action: %d -> %d", before, got)
	}
	if got := f.count(second.ID, core.NotifyUserAssigned); got != 1 {
		t.Errorf("second admin notifications = %d, want 1", got)
	}
	if got := f.count(f.bob.ID, core.NotifyUserAssigned); got != 0 {
		t.Errorf("plain user notified about new user: %d", got)
	}
	n := f.s.Notifications(second.ID)[0]
	if n.Title != "New User Added" || n.Data[core.DataUserID] != carol.ID {
		t.Errorf("notification = %+v", n)
	}
}

func TestNotificationRetentionCap(t *testing.T) {
	f := newFixture(t, Options{})

	var dropped int
	f.s.Subscribe(func(ev Event) {
		if ev.Kind == EventDeleted && ev.Collection == "notifications" {
			dropped++
		}
	})

	var last core.Project
	for i := 0; i < 60; i++ {
		last = f.project(int64(i))
	}

	all := f.s.AllNotifications()
	if len(all) != DefaultNotificationLimit {
		t.Fatalf("notifications = %d, want %d", len(all), DefaultNotificationLimit)
	}
	// 2 from the fixture users plus 2 per project.
	if want := 2 + 60*2 - DefaultNotificationLimit; dropped != want {
		t.Errorf("deletion events = %d, want %d", dropped, want)
	}
	if all[0].Data[core.DataProjectID] != last.ID {
		t.Errorf("newest notification = %v, want the last project", all[0].Data)
	}
	if got := f.count(f.admin.ID, core.NotifyUserAssigned); got != 0 {
		t.Errorf("oldest notifications kept: %d", got)
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatalf("notifications not newest first at %d", i)
		}
	}
}

func TestNotificationLimitOption(t *testing.T) {
	f := newFixture(t, Options{NotificationLimit: 5})
	for i := 0; i < 5; i++ {
		f.project(int64(i))
	}
	if got := len(f.s.AllNotifications()); got != 5 {
		t.Errorf("notifications = %d, want 5", got)
	}
}

func TestNotificationReadState(t *testing.T) {
	f := newFixture(t, Options{})
	f.project(1)
	f.project(2)

	if got := f.s.UnreadCount(f.bob.ID); got != 2 {
		t.Fatalf("unread = %d, want 2", got)
	}
	first := f.s.Notifications(f.bob.ID)[0]

	if err := f.s.MarkNotificationRead(f.alice, first.ID); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("marking someone else's notification: err = %v, want ErrForbidden", err)
	}
	if err := f.s.MarkNotificationRead(f.bob, first.ID); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if err := f.s.MarkNotificationRead(f.bob, first.ID); err != nil {
		t.Fatalf("second MarkNotificationRead: %v", err)
	}
	if got := f.s.UnreadCount(f.bob.ID); got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}

	n, err := f.s.MarkAllNotificationsRead(f.bob, f.bob.ID)
	if err != nil || n != 1 {
		t.Fatalf("MarkAllNotificationsRead = %d, %v; want 1, nil", n, err)
	}
	if got := f.s.UnreadCount(f.bob.ID); got != 0 {
		t.Errorf("unread = %d, want 0", got)
	}

	if err := f.s.DeleteNotification(f.bob, first.ID); err != nil {
		t.Fatalf("DeleteNotification: %v", err)
	}
	if got := len(f.s.Notifications(f.bob.ID)); got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}

	removed, err := f.s.ClearNotifications(f.bob, f.bob.ID)
	if err != nil || removed != 1 {
		t.Fatalf("ClearNotifications = %d, %v; want 1, nil", removed, err)
	}
	if got := len(f.s.Notifications(f.alice.ID)); got != 2 {
		t.Errorf("other user's notifications = %d, want 2", got)
	}
}
