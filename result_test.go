package datalayers

import (
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/require"
)

func makeRecord(t *testing.T, alloc memory.Allocator) arrow.Record {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "ts", Type: &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}},
		{Name: "sid", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: "value", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "ok", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(alloc, schema)
	defer b.Release()
	b.Field(0).(*array.TimestampBuilder).AppendTime(time.Date(2024, 9, 1, 2, 0, 0, 0, time.UTC))
	b.Field(0).(*array.TimestampBuilder).AppendTime(time.Date(2024, 9, 1, 2, 5, 0, 0, time.UTC))
	b.Field(1).(*array.Int32Builder).AppendValues([]int32{1, 0}, []bool{true, false})
	b.Field(2).(*array.Float32Builder).AppendValues([]float32{12.5, 15.25}, nil)
	b.Field(3).(*array.StringBuilder).AppendValues([]string{"a", ""}, []bool{true, false})
	b.Field(4).(*array.BooleanBuilder).AppendValues([]bool{true, false}, nil)
	return b.NewRecord()
}

func TestResultSetToValues(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	rs := newResultSet([]arrow.Record{makeRecord(t, alloc), makeRecord(t, alloc)})
	defer rs.Release()

	require.Equal(t, Schema{
		{Name: "ts", Type: TimestampDataType},
		{Name: "sid", Type: IntDataType, Nullable: true},
		{Name: "value", Type: FloatDataType, Nullable: true},
		{Name: "name", Type: StringDataType, Nullable: true},
		{Name: "ok", Type: BooleanDataType, Nullable: true},
	}, rs.Schema)
	require.EqualValues(t, 4, rs.NumRows())
	require.Equal(t, "ts", rs.ArrowSchema().Field(0).Name)

	values, err := rs.ToValues()
	require.NoError(t, err)
	require.Len(t, values, 4)
	require.Equal(t, []Value{
		time.Date(2024, 9, 1, 2, 0, 0, 0, time.UTC),
		int64(1),
		float64(12.5),
		"a",
		true,
	}, values[0])
	require.Equal(t, []Value{
		time.Date(2024, 9, 1, 2, 5, 0, 0, time.UTC),
		nil,
		float64(15.25),
		nil,
		false,
	}, values[1])
}

func TestResultSetAffectedRows(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "affected_rows", Type: arrow.PrimitiveTypes.Int64}}, nil)
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).Append(5)

	rs := newResultSet([]arrow.Record{b.NewRecord()})
	defer rs.Release()
	affected, err := rs.AffectedRows()
	require.NoError(t, err)
	require.EqualValues(t, 5, affected)

	rs = newResultSet([]arrow.Record{makeRecord(t, memory.DefaultAllocator)})
	defer rs.Release()
	_, err = rs.AffectedRows()
	require.Error(t, err)
	require.Equal(t, KindExecution, KindOf(err))

	_, err = (&ResultSet{}).AffectedRows()
	require.Equal(t, KindEmptyResult, KindOf(err))
}

func TestDataTypeOf(t *testing.T) {
	require.Equal(t, UIntDataType, dataTypeOf(arrow.PrimitiveTypes.Uint16))
	require.Equal(t, FloatDataType, dataTypeOf(arrow.PrimitiveTypes.Float64))
	require.Equal(t, BinaryDataType, dataTypeOf(arrow.BinaryTypes.Binary))
	require.Equal(t, DataType("date32"), dataTypeOf(arrow.FixedWidthTypes.Date32))
}
