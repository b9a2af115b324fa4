package core

// AppSettings is the process-wide configuration singleton persisted under "settings".
type AppSettings struct {
	Currency               string        `json:"currency"`
	DateFormat             string        `json:"dateFormat"`
	FiscalYearStart        string        `json:"fiscalYearStart"`
	BudgetAlertThreshold   float64       `json:"budgetAlertThreshold"`
	AutoBackup             bool          `json:"autoBackup"`
	EmailNotifications     bool          `json:"emailNotifications"`
	CompanyName            string        `json:"companyName"`
	DefaultProjectStatus   ProjectStatus `json:"defaultProjectStatus"`
	DefaultProjectPriority Priority      `json:"defaultProjectPriority"`
	BudgetCategories       []string      `json:"budgetCategories"`
	MaxProjectDuration     int           `json:"maxProjectDuration"`
	RequireBudgetApproval  bool          `json:"requireBudgetApproval"`
	AllowNegativeBudget    bool          `json:"allowNegativeBudget"`
}

// DefaultSettings returns the settings used when nothing has been persisted yet.
func DefaultSettings() AppSettings {
	return AppSettings{
		Currency:               "USD",
		DateFormat:             "MM/DD/YYYY",
		FiscalYearStart:        "01-01",
		BudgetAlertThreshold:   80,
		AutoBackup:             true,
		EmailNotifications:     true,
		CompanyName:            "",
		DefaultProjectStatus:   StatusPlanning,
		DefaultProjectPriority: PriorityMedium,
		BudgetCategories: []string{
			"Personnel", "Equipment", "Travel", "Supplies", "Services", "Training", "Other",
		},
		MaxProjectDuration:    365,
		RequireBudgetApproval: false,
		AllowNegativeBudget:   false,
	}
}

func (s AppSettings) Clone() AppSettings {
	s.BudgetCategories = cloneStrings(s.BudgetCategories)
	return s
}
