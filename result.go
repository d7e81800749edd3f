/*
 * Copyright 2024 The Datalayers SDK Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package datalayers

import (
	"errors"
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// Value stores the contents of a single cell from a statement result.
type Value any

// ResultSet stores the result of a statement execution.
//
// The records are owned by the result set and released by Release.
type ResultSet struct {
	// Schema is the schema of the result set.
	Schema Schema
	// Records are the batches of the result, in the order the server sent them.
	Records []arrow.Record
}

func newResultSet(records []arrow.Record) *ResultSet {
	return &ResultSet{
		Schema:  newSchema(records[0].Schema()),
		Records: records,
	}
}

// ArrowSchema returns the Arrow schema of the batches.
func (rs *ResultSet) ArrowSchema() *arrow.Schema {
	if len(rs.Records) == 0 {
		return nil
	}
	return rs.Records[0].Schema()
}

// NumRows returns the total number of rows over all batches.
func (rs *ResultSet) NumRows() int64 {
	var n int64
	for _, record := range rs.Records {
		n += record.NumRows()
	}
	return n
}

// AffectedRows returns the number of rows affected by a DDL or DML.
//
// By Datalayers' design, the affected rows is the value at the first row and
// the first column.
func (rs *ResultSet) AffectedRows() (int64, error) {
	if len(rs.Records) == 0 {
		return 0, newError(KindEmptyResult, "unexpected empty batches", nil)
	}
	record := rs.Records[0]
	if record.NumCols() == 0 || record.NumRows() == 0 {
		return 0, newError(KindExecution, "no affected rows in the result set", nil)
	}

	switch col := record.Column(0).(type) {
	case *array.Int64:
		return col.Value(0), nil
	case *array.Int32:
		return int64(col.Value(0)), nil
	case *array.Uint64:
		return int64(col.Value(0)), nil
	case *array.Uint32:
		return int64(col.Value(0)), nil
	default:
		return 0, newError(KindExecution, fmt.Sprintf("unexpected type of affected rows: %s", col.DataType()), nil)
	}
}

// ToValues reads the result set and returns the rows as a 2D array of values,
// i.e., rows of value lists.
//
// Integers are returned as int64 or uint64, floats as float64, timestamps as
// time.Time and nulls as nil. Other types are rendered as strings.
func (rs *ResultSet) ToValues() ([][]Value, error) {
	var valueLists [][]Value
	for _, record := range rs.Records {
		if int(record.NumCols()) != len(rs.Schema) {
			return nil, errors.New("schema length does not match record length")
		}

		for i := 0; i < int(record.NumRows()); i++ {
			values := make([]Value, 0, record.NumCols())
			for _, col := range record.Columns() {
				val, err := convertValue(col, i)
				if err != nil {
					return nil, err
				}
				values = append(values, val)
			}
			valueLists = append(valueLists, values)
		}
	}
	return valueLists, nil
}

func convertValue(col arrow.Array, i int) (Value, error) {
	if col.IsNull(i) {
		return nil, nil
	}

	switch arr := col.(type) {
	case *array.Int8:
		return int64(arr.Value(i)), nil
	case *array.Int16:
		return int64(arr.Value(i)), nil
	case *array.Int32:
		return int64(arr.Value(i)), nil
	case *array.Int64:
		return arr.Value(i), nil
	case *array.Uint8:
		return uint64(arr.Value(i)), nil
	case *array.Uint16:
		return uint64(arr.Value(i)), nil
	case *array.Uint32:
		return uint64(arr.Value(i)), nil
	case *array.Uint64:
		return arr.Value(i), nil
	case *array.Float32:
		return float64(arr.Value(i)), nil
	case *array.Float64:
		return arr.Value(i), nil
	case *array.Boolean:
		return arr.Value(i), nil
	case *array.String:
		return arr.Value(i), nil
	case *array.LargeString:
		return arr.Value(i), nil
	case *array.Binary:
		return arr.Value(i), nil
	case *array.Timestamp:
		toTime, err := arr.DataType().(*arrow.TimestampType).GetToTimeFunc()
		if err != nil {
			return nil, err
		}
		return toTime(arr.Value(i)), nil
	default:
		return arr.ValueStr(i), nil
	}
}

// Release releases the records of the result set.
func (rs *ResultSet) Release() {
	releaseRecords(rs.Records)
	rs.Records = nil
}

// Schema describes the fields in a table or query result.
type Schema []*FieldSchema

// FieldSchema describes a single field.
type FieldSchema struct {
	// Name is the field name.
	Name string
	// Type is the field data type.
	Type DataType
	// Nullable reports whether the field may hold nulls.
	Nullable bool
}

func newSchema(schema *arrow.Schema) Schema {
	fields := make(Schema, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		fields = append(fields, &FieldSchema{
			Name:     f.Name,
			Type:     dataTypeOf(f.Type),
			Nullable: f.Nullable,
		})
	}
	return fields
}

// DataType is the type of field.
type DataType string

const (
	// StringDataType is a string data type.
	StringDataType DataType = "string"
	// BinaryDataType is a binary data type.
	BinaryDataType DataType = "binary"
	// IntDataType is an int data type.
	IntDataType DataType = "int"
	// UIntDataType is an uint data type.
	UIntDataType DataType = "uint"
	// FloatDataType is a float data type.
	FloatDataType DataType = "float"
	// BooleanDataType is a bool data type.
	BooleanDataType DataType = "boolean"
	// TimestampDataType is a timestamp data type.
	TimestampDataType DataType = "timestamp"
)

func dataTypeOf(dt arrow.DataType) DataType {
	switch dt.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		return StringDataType
	case arrow.BINARY, arrow.LARGE_BINARY:
		return BinaryDataType
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64:
		return IntDataType
	case arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return UIntDataType
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return FloatDataType
	case arrow.BOOL:
		return BooleanDataType
	case arrow.TIMESTAMP:
		return TimestampDataType
	default:
		return DataType(dt.String())
	}
}
