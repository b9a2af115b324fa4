package remote

import (
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"budgetrack/internal/core"
	"budgetrack/internal/persist"
)

var userMapper = mapper[core.User]{
	table:   persist.KeyUsers,
	columns: []string{"id", "name", "email", "role", "initials", "created_at"},
	orderBy: "created_at, id",
	id:      func(u core.User) string { return u.ID },
	values: func(u core.User) ([]any, error) {
		return []any{u.ID, u.Name, u.Email, string(u.Role), u.Initials, u.CreatedAt}, nil
	},
	scan: func(r rowScanner) (core.User, error) {
		var u core.User
		err := r.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Initials, &u.CreatedAt)
		return u, err
	},
}

var divisionMapper = mapper[core.Division]{
	table:    persist.KeyDivisions,
	columns:  []string{"id", "name", "created_by", "created_at"},
	orderBy:  "created_at, id",
	cascades: []string{persist.KeyUnits},
	id:       func(d core.Division) string { return d.ID },
	values: func(d core.Division) ([]any, error) {
		return []any{d.ID, d.Name, d.CreatedBy, d.CreatedAt}, nil
	},
	scan: func(r rowScanner) (core.Division, error) {
		var d core.Division
		err := r.Scan(&d.ID, &d.Name, &d.CreatedBy, &d.CreatedAt)
		return d, err
	},
}

var unitMapper = mapper[core.Unit]{
	table:   persist.KeyUnits,
	columns: []string{"id", "name", "division_id", "created_by", "created_at"},
	orderBy: "created_at, id",
	id:      func(u core.Unit) string { return u.ID },
	values: func(u core.Unit) ([]any, error) {
		return []any{u.ID, u.Name, u.DivisionID, u.CreatedBy, u.CreatedAt}, nil
	},
	scan: func(r rowScanner) (core.Unit, error) {
		var u core.Unit
		err := r.Scan(&u.ID, &u.Name, &u.DivisionID, &u.CreatedBy, &u.CreatedAt)
		return u, err
	},
}

var codeMapper = mapper[core.BudgetCode]{
	table: persist.KeyBudgetCodes,
	columns: []string{
		"id", "code", "name", "description", "budget", "spent",
		"is_active", "created_by", "created_at", "updated_at",
	},
	orderBy:  "created_at, id",
	cascades: []string{persist.KeyBudgetEntries},
	id:       func(c core.BudgetCode) string { return c.ID },
	values: func(c core.BudgetCode) ([]any, error) {
		return []any{
			c.ID, c.Code, c.Name, c.Description, c.Budget.String(), c.Spent.String(),
			c.IsActive, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
		}, nil
	},
	scan: func(r rowScanner) (core.BudgetCode, error) {
		var (
			c             core.BudgetCode
			budget, spent string
		)
		err := r.Scan(&c.ID, &c.Code, &c.Name, &c.Description, &budget, &spent,
			&c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return c, err
		}
		if c.Budget, err = core.ParseMoney(budget); err != nil {
			return c, err
		}
		c.Spent, err = core.ParseMoney(spent)
		return c, err
	},
}

var projectMapper = mapper[core.Project]{
	table: persist.KeyProjects,
	columns: []string{
		"id", "name", "description", "unit_id", "status", "priority", "start_date", "end_date",
		"budget", "spent", "assigned_users", "budget_codes", "created_by", "created_at", "updated_at",
	},
	orderBy:  "created_at, id",
	cascades: []string{persist.KeyBudgetEntries},
	id:       func(p core.Project) string { return p.ID },
	values: func(p core.Project) ([]any, error) {
		return []any{
			p.ID, p.Name, p.Description, nullString(p.UnitID), string(p.Status), string(p.Priority),
			nullDate(p.StartDate), nullDate(p.EndDate), p.Budget.String(), p.Spent.String(),
			pq.Array(nonNil(p.AssignedUsers)), pq.Array(nonNil(p.BudgetCodes)),
			p.CreatedBy, p.CreatedAt, p.UpdatedAt,
		}, nil
	},
	scan: func(r rowScanner) (core.Project, error) {
		var (
			p             core.Project
			unitID        sql.NullString
			start, end    sql.NullTime
			budget, spent string
		)
		err := r.Scan(&p.ID, &p.Name, &p.Description, &unitID, &p.Status, &p.Priority,
			&start, &end, &budget, &spent,
			pq.Array(&p.AssignedUsers), pq.Array(&p.BudgetCodes),
			&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return p, err
		}
		p.UnitID = unitID.String
		p.StartDate = dateOf(start)
		p.EndDate = dateOf(end)
		p.AssignedUsers = nonNil(p.AssignedUsers)
		p.BudgetCodes = nonNil(p.BudgetCodes)
		if p.Budget, err = core.ParseMoney(budget); err != nil {
			return p, err
		}
		p.Spent, err = core.ParseMoney(spent)
		return p, err
	},
}

var entryMapper = mapper[core.BudgetEntry]{
	table: persist.KeyBudgetEntries,
	columns: []string{
		"id", "project_id", "unit_id", "division_id", "budget_code_id", "description",
		"amount", "type", "category", "date", "created_by", "created_at",
	},
	orderBy: "created_at, id",
	id:      func(e core.BudgetEntry) string { return e.ID },
	values: func(e core.BudgetEntry) ([]any, error) {
		return []any{
			e.ID, e.ProjectID, nullString(e.UnitID), nullString(e.DivisionID), nullString(e.BudgetCodeID),
			e.Description, e.Amount.String(), string(e.Type), e.Category, nullDate(e.Date),
			e.CreatedBy, e.CreatedAt,
		}, nil
	},
	scan: func(r rowScanner) (core.BudgetEntry, error) {
		var (
			e                        core.BudgetEntry
			unitID, divisionID, code sql.NullString
			amount                   string
			date                     sql.NullTime
		)
		err := r.Scan(&e.ID, &e.ProjectID, &unitID, &divisionID, &code, &e.Description,
			&amount, &e.Type, &e.Category, &date, &e.CreatedBy, &e.CreatedAt)
		if err != nil {
			return e, err
		}
		e.UnitID = unitID.String
		e.DivisionID = divisionID.String
		e.BudgetCodeID = code.String
		e.Date = dateOf(date)
		e.Amount, err = core.ParseMoney(amount)
		return e, err
	},
}

var notificationMapper = mapper[core.Notification]{
	table: persist.KeyNotifications,
	columns: []string{
		"id", "user_id", "type", "title", "message", "data", "read", "action_url", "created_at",
	},
	orderBy: "created_at DESC, id",
	id:      func(n core.Notification) string { return n.ID },
	values: func(n core.Notification) ([]any, error) {
		var data any
		if len(n.Data) > 0 {
			raw, err := json.Marshal(n.Data)
			if err != nil {
				return nil, err
			}
			data = string(raw)
		}
		return []any{
			n.ID, n.UserID, string(n.Type), n.Title, n.Message, data, n.Read, n.ActionURL, n.CreatedAt,
		}, nil
	},
	scan: func(r rowScanner) (core.Notification, error) {
		var (
			n    core.Notification
			data []byte
		)
		err := r.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.Read, &n.ActionURL, &n.CreatedAt)
		if err != nil {
			return n, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return n, err
			}
		}
		return n, nil
	},
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDate(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.String()
}

func dateOf(t sql.NullTime) core.Date {
	if !t.Valid {
		return core.Date{}
	}
	return core.DateOf(t.Time)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
