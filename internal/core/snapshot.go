package core

// Snapshot is the complete persisted state, as read at startup from either
// the local key/value backend or the remote database.
type Snapshot struct {
	Users         []User
	Divisions     []Division
	Units         []Unit
	Projects      []Project
	BudgetEntries []BudgetEntry
	BudgetCodes   []BudgetCode
	Notifications []Notification
	// Settings is nil when nothing has been stored yet.
	Settings *AppSettings
}
