package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-friendly view of an error chain.
type ErrorDump struct {
	Message string
	Code    Code
	Chain   []string
	DB      *DBDetail
}

// DBDetail is what the database driver said, when it said anything.
type DBDetail struct {
	Driver     string
	Code       string
	Constraint string
	Table      string
	Column     string
	Detail     string
	Message    string
}

// Dump walks err and pulls out the typed code and any driver error. pgx and
// lib/pq errors are read field by field; sqlite only gives text, so the
// "UNIQUE constraint failed: table.column" form is parsed.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{Message: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.DB = &DBDetail{
			Driver: "pgx", Code: pgxErr.Code, Constraint: pgxErr.ConstraintName,
			Table: pgxErr.TableName, Column: pgxErr.ColumnName,
			Detail: pgxErr.Detail, Message: pgxErr.Message,
		}
	case errors.As(err, &pqErr):
		d.DB = &DBDetail{
			Driver: "pq", Code: string(pqErr.Code), Constraint: pqErr.Constraint,
			Table: pqErr.Table, Column: pqErr.Column,
			Detail: pqErr.Detail, Message: pqErr.Message,
		}
	default:
		d.DB = sqliteDetail(err.Error())
	}
	return d
}

func sqliteDetail(msg string) *DBDetail {
	for _, kind := range []string{"UNIQUE", "NOT NULL", "FOREIGN KEY", "CHECK"} {
		marker := kind + " constraint failed"
		idx := strings.Index(msg, marker)
		if idx < 0 {
			continue
		}
		detail := &DBDetail{Driver: "sqlite", Code: kind, Message: msg[idx:]}
		rest := strings.TrimPrefix(msg[idx+len(marker):], ":")
		if target, _, _ := strings.Cut(strings.TrimSpace(rest), ","); target != "" {
			detail.Table, detail.Column, _ = strings.Cut(target, ".")
		}
		return detail
	}
	return nil
}

// Fields returns the dump as structured log fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.Message,
		"error_chain": d.Chain,
	}
	if d.Code != "" {
		fields["error_code"] = string(d.Code)
	}
	if d.DB != nil {
		fields["db_driver"] = d.DB.Driver
		fields["db_code"] = d.DB.Code
		fields["db_table"] = d.DB.Table
		fields["db_column"] = d.DB.Column
		fields["db_constraint"] = d.DB.Constraint
		fields["db_detail"] = d.DB.Detail
		fields["db_message"] = d.DB.Message
	}
	return fields
}
