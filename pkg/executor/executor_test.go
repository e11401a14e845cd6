package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RejectsNonSelect(t *testing.T) {
	cases := []string{
		"",
		"SHOW TABLES",
		"EXPLAIN SELECT 1",
		"WITH x AS (SELECT 1) SELECT * FROM x", // CTE prefix is not "select"
		"  \n\tshow tables",
	}
	for _, sqlText := range cases {
		err := Validate(sqlText)
		var safetyErr *SafetyError
		assert.ErrorAs(t, err, &safetyErr, "input: %q", sqlText)
	}
}

func TestValidate_RejectsDenylistedKeywords(t *testing.T) {
	cases := []string{
		"SELECT 1; DROP TABLE users",
		"select * from orders where status = 'deleted'", // literal containing "delete"
		"SELECT * FROM customers WHERE name = 'update me'",
		"select truncate_hint from t",
		"SELECT * FROM grants", // contains "grant"
	}
	for _, sqlText := range cases {
		err := Validate(sqlText)
		var safetyErr *SafetyError
		assert.ErrorAs(t, err, &safetyErr, "input: %q", sqlText)
	}
}

func TestValidate_AcceptsPlainSelects(t *testing.T) {
	cases := []string{
		"SELECT 1",
		"  select * from customers where country = 'USA'  ",
		"SELECT c.name, o.total_amount FROM customers c JOIN orders o ON o.customer_id = c.id",
	}
	for _, sqlText := range cases {
		assert.NoError(t, Validate(sqlText), "input: %q", sqlText)
	}
}

func TestExecute_RejectsBeforeTouchingDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	exec := New(db, 0)
	_, err = exec.Execute(context.Background(), "DROP TABLE users")

	var safetyErr *SafetyError
	require.ErrorAs(t, err, &safetyErr)
	// No query was ever expected, so this passing proves nothing reached the DB.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_SelectOne(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("select 1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(int64(1)))

	exec := New(db, 0)
	result, err := exec.Execute(context.Background(), "select 1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.RowCount)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(1), result.Rows[0]["?column?"])
	assert.GreaterOrEqual(t, result.ExecutionTimeMS, int64(0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_ByteColumnsBecomeStrings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("select name from customers").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow([]byte("Alice Nguyen")))

	exec := New(db, 0)
	result, err := exec.Execute(context.Background(), "select name from customers")
	require.NoError(t, err)
	assert.Equal(t, "Alice Nguyen", result.Rows[0]["name"])
}

func TestExecute_TimeoutClassifiedDistinctly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("select pg_sleep").
		WillDelayFor(500 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"pg_sleep"}))

	exec := New(db, 20*time.Millisecond)
	_, err = exec.Execute(context.Background(), "select pg_sleep(60)")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	var execErr *ExecError
	assert.False(t, errors.As(err, &execErr), "timeout must not be an ExecError")
}

func TestExecute_DatabaseFaultIsExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("select \\* from missing").
		WillReturnError(assert.AnError)

	exec := New(db, 0)
	_, err = exec.Execute(context.Background(), "select * from missing")

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, err, assert.AnError)
}
