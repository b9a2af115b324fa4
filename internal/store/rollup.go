package store

import (
	"budgetrack/internal/core"
	"budgetrack/internal/log"
	"budgetrack/internal/persist"
)

// Rollup keeps Project.Spent and BudgetCode.Spent equal to the sum of the
// expense entries referencing them. Decrements are floored at zero, so an
// edit history that does not reverse exactly never shows negative spend.

// applyEntry adds an expense entry to its project and budget code.
// Income entries leave both untouched.
func (tx *txn) applyEntry(e core.BudgetEntry) (codeTouched *core.BudgetCode) {
	if !e.IsExpense() {
		return nil
	}
	return tx.adjust(e, func(spent core.Money) core.Money { return spent.Add(e.Amount) })
}

// reverseEntry removes an expense entry from its project and budget code.
func (tx *txn) reverseEntry(e core.BudgetEntry) {
	if !e.IsExpense() {
		return
	}
	tx.adjust(e, func(spent core.Money) core.Money { return spent.SubFloor(e.Amount) })
}

func (tx *txn) adjust(e core.BudgetEntry, f func(core.Money) core.Money) *core.BudgetCode {
	s := tx.s
	if p, ok := s.projects.get(e.ProjectID); ok {
		before := p.Spent
		p.Spent = f(p.Spent)
		if p.Spent != before {
			p.UpdatedAt = tx.now
			s.projects.put(p.ID, p)
			tx.emit(EventUpdated, persist.KeyProjects, p.ID, p.Clone())
		}
		s.rollupLog.Debug("Project spend recomputed",
			log.NewFields().WithEntity(persist.KeyProjects, p.ID).
				WithUsage(p.Spent.String(), p.Budget.String(), p.Spent.Percentage(p.Budget)).ToSlice()...)
	}

	if e.BudgetCodeID == "" {
		return nil
	}
	c, ok := s.codes.get(e.BudgetCodeID)
	if !ok {
		return nil
	}
	before := c.Spent
	c.Spent = f(c.Spent)
	if c.Spent != before {
		c.UpdatedAt = tx.now
		s.codes.put(c.ID, c)
		tx.emit(EventUpdated, persist.KeyBudgetCodes, c.ID, c)
	}
	s.rollupLog.Debug("Budget code spend recomputed",
		log.NewFields().WithEntity(persist.KeyBudgetCodes, c.ID).
			WithUsage(c.Spent.String(), c.Budget.String(), c.Spent.Percentage(c.Budget)).ToSlice()...)
	return &c
}
