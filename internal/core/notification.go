package core

import "time"

const (
	NotifyProjectCreated   NotificationType = "project_created"
	NotifyProjectUpdated   NotificationType = "project_updated"
	NotifyProjectCompleted NotificationType = "project_completed"
	NotifyBudgetAlert      NotificationType = "budget_alert"
	NotifyUserAssigned     NotificationType = "user_assigned"
	NotifyEntryAdded       NotificationType = "budget_entry_added"
	NotifyBudgetCodeAlert  NotificationType = "budget_code_alert"
)

// Recognised keys of Notification.Data. Consumers ignore anything else.
const (
	DataProjectID    = "projectId"
	DataPercentage   = "percentage"
	DataBudget       = "budget"
	DataSpent        = "spent"
	DataAmount       = "amount"
	DataType         = "type"
	DataBudgetCodeID = "budgetCodeId"
	DataEntryID      = "entryId"
	DataUserID       = "userId"
)

type (
	NotificationType string

	// Notification is addressed to a single user. Read only ever goes false -> true.
	Notification struct {
		ID        string           `json:"id"`
		UserID    string           `json:"userId"`
		Type      NotificationType `json:"type"`
		Title     string           `json:"title"`
		Message   string           `json:"message"`
		Data      map[string]any   `json:"data,omitempty"`
		Read      bool             `json:"read"`
		CreatedAt time.Time        `json:"createdAt"`
		ActionURL string           `json:"actionUrl,omitempty"`
	}
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotifyProjectCreated, NotifyProjectUpdated, NotifyProjectCompleted, NotifyBudgetAlert,
		NotifyUserAssigned, NotifyEntryAdded, NotifyBudgetCodeAlert:
		return true
	}
	return false
}

// Clone copies the top level of Data so callers cannot alter the stored map.
func (n Notification) Clone() Notification {
	if n.Data != nil {
		data := make(map[string]any, len(n.Data))
		for k, v := range n.Data {
			data[k] = v
		}
		n.Data = data
	}
	return n
}
