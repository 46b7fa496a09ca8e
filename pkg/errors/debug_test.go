package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpPostgresUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key", TableName: "users", Message: "duplicate key value"}
	err := Wrap(CodeConflict, fmt.Errorf("insert user: %w", pgErr), "A user with that email already exists.")

	d := Dump(err)
	assert.Equal(t, CodeConflict, d.Code)
	assert.Len(t, d.Chain, 3)
	require.NotNil(t, d.DB)
	assert.Equal(t, "pgx", d.DB.Driver)
	assert.Equal(t, "23505", d.DB.Code)
	assert.Equal(t, "users_email_key", d.DB.Constraint)

	fields := d.Fields()
	assert.Equal(t, "CONFLICT", fields["error_code"])
	assert.Equal(t, "users", fields["db_table"])
}

func TestDumpSQLiteConstraint(t *testing.T) {
	d := Dump(stdErrors.New("UNIQUE constraint failed: orders.razorpay_payment_id"))
	require.NotNil(t, d.DB)
	assert.Equal(t, "sqlite", d.DB.Driver)
	assert.Equal(t, "UNIQUE", d.DB.Code)
	assert.Equal(t, "orders", d.DB.Table)
	assert.Equal(t, "razorpay_payment_id", d.DB.Column)
	assert.Empty(t, d.Code)
}

func TestDumpPlainError(t *testing.T) {
	d := Dump(stdErrors.New("smtp down"))
	assert.Nil(t, d.DB)
	assert.Equal(t, []string{"*errors.errorString: smtp down"}, d.Chain)
	assert.NotContains(t, d.Fields(), "db_driver")
	assert.Equal(t, ErrorDump{}, Dump(nil))
}
