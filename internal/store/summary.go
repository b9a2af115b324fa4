package store

import (
	"sort"

	"budgetrack/internal/core"
)

// ProjectSummary reports the financial position of one project. Income is
// shown separately and never offsets spend.
func (s *Store) ProjectSummary(id string) (core.ProjectSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects.get(id)
	if !ok {
		return core.ProjectSummary{}, s.missing("project", id)
	}

	var income core.Money
	for _, e := range s.entries.list(func(e core.BudgetEntry) bool { return e.ProjectID == id }) {
		if !e.IsExpense() {
			income = income.Add(e.Amount)
		}
	}
	return core.ProjectSummary{
		ProjectID: p.ID,
		Budget:    p.Budget,
		Spent:     p.Spent,
		Income:    income,
		Remaining: core.Money{Cents: p.Budget.Cents - p.Spent.Cents},
		Usage:     p.Spent.Percentage(p.Budget),
	}, nil
}

// Overview aggregates every project, budget code and entry into the dashboard totals.
func (s *Store) Overview() core.Overview {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ov core.Overview
	for _, p := range s.projects.list(nil) {
		ov.TotalBudget = ov.TotalBudget.Add(p.Budget)
		ov.TotalSpent = ov.TotalSpent.Add(p.Spent)
		if p.Status == core.StatusActive {
			ov.ActiveProjects++
		}
		if _, over := s.overThreshold(p.Spent, p.Budget); over {
			ov.ProjectsOverAlert = append(ov.ProjectsOverAlert, p.ID)
		}
	}
	ov.Remaining = core.Money{Cents: ov.TotalBudget.Cents - ov.TotalSpent.Cents}

	for _, c := range s.codes.list(nil) {
		if _, over := s.overThreshold(c.Spent, c.Budget); over {
			ov.CodesOverAlert = append(ov.CodesOverAlert, c.ID)
		}
	}

	byCategory := make(map[string]core.Money)
	for _, e := range s.entries.list(nil) {
		if !e.IsExpense() {
			ov.TotalIncome = ov.TotalIncome.Add(e.Amount)
			continue
		}
		cat := e.Category
		if cat == "" {
			cat = "Other"
		}
		byCategory[cat] = byCategory[cat].Add(e.Amount)
	}
	for name, amount := range byCategory {
		ov.ByCategory = append(ov.ByCategory, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(ov.ByCategory, func(i, j int) bool {
		if ov.ByCategory[i].Amount.Cents != ov.ByCategory[j].Amount.Cents {
			return ov.ByCategory[i].Amount.Cents > ov.ByCategory[j].Amount.Cents
		}
		return ov.ByCategory[i].Name < ov.ByCategory[j].Name
	})
	return ov
}
