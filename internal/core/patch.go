package core

// Patch types carry the fields a caller wants to change. A nil pointer (or a
// nil slice) leaves the field untouched; an empty non-nil slice clears it.
type (
	UserPatch struct {
		Name     *string
		Email    *string
		Role     *Role
		Initials *string
	}

	DivisionPatch struct {
		Name *string
	}

	UnitPatch struct {
		Name       *string
		DivisionID *string
	}

	BudgetCodePatch struct {
		Code        *string
		Name        *string
		Description *string
		Budget      *Money
		IsActive    *bool
	}

	ProjectPatch struct {
		Name          *string
		Description   *string
		UnitID        *string
		Status        *ProjectStatus
		Priority      *Priority
		StartDate     *Date
		EndDate       *Date
		Budget        *Money
		AssignedUsers []string
		BudgetCodes   []string
	}

	EntryPatch struct {
		BudgetCodeID *string
		Description  *string
		Amount       *Money
		Type         *EntryType
		Category     *string
		Date         *Date
	}

	SettingsPatch struct {
		Currency               *string
		DateFormat             *string
		FiscalYearStart        *string
		BudgetAlertThreshold   *float64
		AutoBackup             *bool
		EmailNotifications     *bool
		CompanyName            *string
		DefaultProjectStatus   *ProjectStatus
		DefaultProjectPriority *Priority
		BudgetCategories       []string
		MaxProjectDuration     *int
		RequireBudgetApproval  *bool
		AllowNegativeBudget    *bool
	}
)

func (p UserPatch) Apply(u *User) {
	setIf(&u.Name, p.Name)
	setIf(&u.Email, p.Email)
	setIf(&u.Role, p.Role)
	setIf(&u.Initials, p.Initials)
}

func (p DivisionPatch) Apply(d *Division) {
	setIf(&d.Name, p.Name)
}

func (p UnitPatch) Apply(u *Unit) {
	setIf(&u.Name, p.Name)
	setIf(&u.DivisionID, p.DivisionID)
}

func (p BudgetCodePatch) Apply(c *BudgetCode) {
	setIf(&c.Code, p.Code)
	setIf(&c.Name, p.Name)
	setIf(&c.Description, p.Description)
	setIf(&c.Budget, p.Budget)
	setIf(&c.IsActive, p.IsActive)
}

func (p ProjectPatch) Apply(pr *Project) {
	setIf(&pr.Name, p.Name)
	setIf(&pr.Description, p.Description)
	setIf(&pr.UnitID, p.UnitID)
	setIf(&pr.Status, p.Status)
	setIf(&pr.Priority, p.Priority)
	setIf(&pr.StartDate, p.StartDate)
	setIf(&pr.EndDate, p.EndDate)
	setIf(&pr.Budget, p.Budget)
	if p.AssignedUsers != nil {
		pr.AssignedUsers = Dedupe(p.AssignedUsers)
	}
	if p.BudgetCodes != nil {
		pr.BudgetCodes = Dedupe(p.BudgetCodes)
	}
}

func (p EntryPatch) Apply(e *BudgetEntry) {
	setIf(&e.BudgetCodeID, p.BudgetCodeID)
	setIf(&e.Description, p.Description)
	setIf(&e.Amount, p.Amount)
	setIf(&e.Type, p.Type)
	setIf(&e.Category, p.Category)
	setIf(&e.Date, p.Date)
}

func (p SettingsPatch) Apply(s *AppSettings) {
	setIf(&s.Currency, p.Currency)
	setIf(&s.DateFormat, p.DateFormat)
	setIf(&s.FiscalYearStart, p.FiscalYearStart)
	setIf(&s.BudgetAlertThreshold, p.BudgetAlertThreshold)
	setIf(&s.AutoBackup, p.AutoBackup)
	setIf(&s.EmailNotifications, p.EmailNotifications)
	setIf(&s.CompanyName, p.CompanyName)
	setIf(&s.DefaultProjectStatus, p.DefaultProjectStatus)
	setIf(&s.DefaultProjectPriority, p.DefaultProjectPriority)
	if p.BudgetCategories != nil {
		s.BudgetCategories = cloneStrings(p.BudgetCategories)
	}
	setIf(&s.MaxProjectDuration, p.MaxProjectDuration)
	setIf(&s.RequireBudgetApproval, p.RequireBudgetApproval)
	setIf(&s.AllowNegativeBudget, p.AllowNegativeBudget)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v. Handy when building patches.
func Ptr[T any](v T) *T {
	return &v
}
