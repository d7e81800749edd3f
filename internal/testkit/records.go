package testkit

import (
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// AffectedRowsSchema is the schema of the results of DDLs and DMLs.
var AffectedRowsSchema = arrow.NewSchema([]arrow.Field{
	{Name: "affected_rows", Type: arrow.PrimitiveTypes.Int64},
}, nil)

// AffectedRows answers like the server does for DDLs and DMLs: a single batch
// holding the count.
func AffectedRows(n int64) (*arrow.Schema, []arrow.Record, error) {
	b := array.NewRecordBuilder(memory.DefaultAllocator, AffectedRowsSchema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).Append(n)
	return AffectedRowsSchema, []arrow.Record{b.NewRecord()}, nil
}

// Row is a row of the demo table.
type Row struct {
	TS    time.Time
	SID   int32
	Value float32
	Flag  int8
}

// DemoSchema is the schema of the demo table.
var DemoSchema = arrow.NewSchema([]arrow.Field{
	{Name: "ts", Type: &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}},
	{Name: "sid", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: "value", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "flag", Type: arrow.PrimitiveTypes.Int8, Nullable: true},
}, nil)

// DemoRecord builds a batch of rows of the demo table.
func DemoRecord(rows []Row) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, DemoSchema)
	defer b.Release()
	for _, r := range rows {
		b.Field(0).(*array.TimestampBuilder).AppendTime(r.TS)
		b.Field(1).(*array.Int32Builder).Append(r.SID)
		b.Field(2).(*array.Float32Builder).Append(r.Value)
		b.Field(3).(*array.Int8Builder).Append(r.Flag)
	}
	return b.NewRecord()
}

// DemoRows reads the rows of a batch of the demo table, e.g. parameters bound
// to an insert.
func DemoRows(record arrow.Record) []Row {
	ts := record.Column(0).(*array.Timestamp)
	toTime, _ := ts.DataType().(*arrow.TimestampType).GetToTimeFunc()
	sid := record.Column(1).(*array.Int32)
	value := record.Column(2).(*array.Float32)
	flag := record.Column(3).(*array.Int8)

	rows := make([]Row, 0, record.NumRows())
	for i := 0; i < int(record.NumRows()); i++ {
		rows = append(rows, Row{
			TS:    toTime(ts.Value(i)),
			SID:   sid.Value(i),
			Value: value.Value(i),
			Flag:  flag.Value(i),
		})
	}
	return rows
}
