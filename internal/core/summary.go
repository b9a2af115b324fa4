package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// ProjectSummary is the financial position of a single project.
type ProjectSummary struct {
	ProjectID string
	Budget    Money
	Spent     Money
	Income    Money
	Remaining Money
	Usage     float64 // spent as a percentage of budget
}

// Overview is the organisation-wide dashboard summary.
type Overview struct {
	TotalBudget       Money
	TotalSpent        Money
	TotalIncome       Money
	Remaining         Money
	ActiveProjects    int
	ProjectsOverAlert []string
	CodesOverAlert    []string
	ByCategory        []CategoryAmount
}
