package testkit

import (
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/stretchr/testify/require"
)

func TestParseValues(t *testing.T) {
	rows, err := parseValues(`
        INSERT INTO go.demo (ts, sid, value, flag) VALUES
            ('2024-09-03T10:00:00+08:00', 1, 4.5, 0),
            ('2024-09-03T10:05:00+08:00', 2, 11.6, 1);`)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.True(t, rows[0].TS.Equal(time.Date(2024, 9, 3, 2, 0, 0, 0, time.UTC)))
	require.Equal(t, Row{TS: rows[1].TS, SID: 2, Value: 11.6, Flag: 1}, rows[1])
}

func TestParseValuesInvalid(t *testing.T) {
	_, err := parseValues("INSERT INTO go.demo SELECT * FROM other")
	require.ErrorContains(t, err, "missing VALUES")

	_, err = parseValues("INSERT INTO go.demo VALUES ('yesterday', 1, 4.5, 0)")
	require.ErrorContains(t, err, "invalid tuple")

	_, err = parseValues("INSERT INTO go.demo VALUES (1, 2)")
	require.ErrorContains(t, err, "expected 4 values, got 2")
}

func TestStoreHandle(t *testing.T) {
	store := &Store{}

	_, records, err := store.Handle(&Request{Query: "INSERT INTO go.demo VALUES ('2024-09-03T10:00:00Z', 3, 1.5, 1)"})
	require.NoError(t, err)
	require.Equal(t, int64(1), records[0].Column(0).(*array.Int64).Value(0))

	schema, records, err := store.Handle(&Request{Query: "select * from go.demo"})
	require.NoError(t, err)
	require.Equal(t, DemoSchema, schema)
	require.Equal(t, store.Rows(), DemoRows(records[0]))

	_, _, err = store.Handle(&Request{Query: "SHOW TABLES"})
	require.ErrorContains(t, err, `unsupported statement \"SHOW TABLES\"`)
}
