package config

import (
	"context"
	"strings"

	"github.com/kilo/kilo_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// participantColumns maps a caller role to the column naming that party on a row.
var participantColumns = map[string]string{
	"importer": "importer_id",
	"supplier": "supplier_id",
	"broker":   "broker_id",
}

// ParticipantGuardPlugin scopes reads and writes of models carrying a
// participant column (importer_id, supplier_id, broker_id) to rows where the
// caller is that participant. It mirrors row-level security of the hosted
// database the dashboard was first built on.
//
// NOTE:
// - Raw SQL is not scoped.
// - Requests without a user in context (workers, CLIs) are not scoped.
type ParticipantGuardPlugin struct{}

func NewParticipantGuardPlugin() *ParticipantGuardPlugin { return &ParticipantGuardPlugin{} }

func (p *ParticipantGuardPlugin) Name() string { return "participant_guard" }

func (p *ParticipantGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("participant_guard:query", participantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("participant_guard:row", participantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("participant_guard:update", participantGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("participant_guard:delete", participantGuardCallback); err != nil {
		return err
	}
	return nil
}

func participantGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil {
		return
	}
	column, userID, ok := ParticipantScope(db.Statement.Context)
	if !ok || db.Statement.Schema == nil {
		return
	}

	hasColumn := false
	for _, f := range db.Statement.Schema.Fields {
		if strings.EqualFold(f.DBName, column) {
			hasColumn = true
			break
		}
	}
	if !hasColumn {
		return
	}
	if whereHasColumn(db.Statement.Clauses["WHERE"], column) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: column},
				Value:  userID,
			},
		},
	})
}

// ParticipantScope returns the column and user id the caller is scoped to.
func ParticipantScope(ctx context.Context) (column string, userID string, ok bool) {
	if skip, _ := appctx.GetBool(ctx, appctx.ContextKeySkipParticipantScope); skip {
		return "", "", false
	}
	userID, _ = appctx.GetString(ctx, appctx.ContextKeyUserId)
	role, _ := appctx.GetString(ctx, appctx.ContextKeyRole)
	if userID == "" {
		return "", "", false
	}
	column, ok = participantColumns[strings.ToLower(role)]
	return column, userID, ok
}

func whereHasColumn(c clause.Clause, column string) bool {
	if c.Expression == nil {
		return false
	}
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasColumn(e, column) {
			return true
		}
	}
	return false
}

func exprHasColumn(e clause.Expression, column string) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIs(v.Column, column)
	case clause.Neq:
		return colIs(v.Column, column)
	case clause.IN:
		return colIs(v.Column, column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasColumn(x, column) {
				return true
			}
		}
		return false
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasColumn(x, column) {
				return true
			}
		}
		return false
	case clause.Expr:
		// Best-effort for raw expressions.
		return strings.Contains(strings.ToLower(v.SQL), column)
	default:
		return false
	}
}

func colIs(col any, column string) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, column)
	case clause.Column:
		return strings.EqualFold(c.Name, column)
	default:
		return false
	}
}
