package testkit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// Store is a Handler backed by a single in-memory demo table.
//
// It understands just enough SQL for the demo: CREATE and DROP statements,
// INSERT either bound through a prepared statement or with literal
// `(ts, sid, value, flag)` tuples, and SELECT with an optional `sid = ?`
// filter bound through a prepared statement. Rows are returned in
// insertion order. Other statements fail with a server-like message.
type Store struct {
	mu   sync.Mutex
	rows []Row
}

// Rows returns the rows stored so far.
func (s *Store) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Row(nil), s.rows...)
}

// Insert stores rows.
func (s *Store) Insert(rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
}

// Handle implements Handler.
func (s *Store) Handle(req *Request) (*arrow.Schema, []arrow.Record, error) {
	query := strings.ToUpper(strings.TrimSpace(req.Query))
	switch {
	case strings.HasPrefix(query, "CREATE"), strings.HasPrefix(query, "DROP"):
		return AffectedRows(0)
	case strings.HasPrefix(query, "INSERT") && req.Params != nil:
		rows := DemoRows(req.Params)
		s.Insert(rows...)
		return AffectedRows(int64(len(rows)))
	case strings.HasPrefix(query, "INSERT"):
		rows, err := parseValues(req.Query)
		if err != nil {
			return nil, nil, err
		}
		s.Insert(rows...)
		return AffectedRows(int64(len(rows)))
	case strings.HasPrefix(query, "SELECT"):
		return DemoSchema, []arrow.Record{DemoRecord(s.selectRows(req.Params))}, nil
	default:
		return nil, nil, fmt.Errorf(`status: Internal, message: "unsupported statement \"%s\" at src/dbserver/src/testkit.rs:1"`, req.Query)
	}
}

// selectRows returns the rows whose sid equals one of the bound sids, bound
// set after bound set. Without parameters, all rows are returned.
func (s *Store) selectRows(params arrow.Record) []Row {
	rows := s.Rows()
	if params == nil {
		return rows
	}

	sids := params.Column(0).(*array.Int32)
	var selected []Row
	for i := 0; i < sids.Len(); i++ {
		for _, r := range rows {
			if r.SID == sids.Value(i) {
				selected = append(selected, r)
			}
		}
	}
	return selected
}

var tupleRegex = regexp.MustCompile(`\(([^()]*)\)`)

// parseValues reads the literal tuples following VALUES.
func parseValues(query string) ([]Row, error) {
	idx := strings.Index(strings.ToUpper(query), "VALUES")
	if idx < 0 {
		return nil, fmt.Errorf(`status: Internal, message: "missing VALUES in \"%s\" at src/dbserver/src/testkit.rs:1"`, query)
	}

	var rows []Row
	for _, m := range tupleRegex.FindAllStringSubmatch(query[idx:], -1) {
		row, err := parseTuple(m[1])
		if err != nil {
			return nil, fmt.Errorf(`status: Internal, message: "invalid tuple (%s): %s at src/dbserver/src/testkit.rs:1"`, m[1], err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseTuple(tuple string) (Row, error) {
	fields := strings.Split(tuple, ",")
	if len(fields) != 4 {
		return Row{}, fmt.Errorf("expected 4 values, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.Trim(strings.TrimSpace(fields[i]), "'")
	}

	ts, err := time.Parse(time.RFC3339, fields[0])
	if err != nil {
		return Row{}, err
	}
	sid, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return Row{}, err
	}
	value, err := strconv.ParseFloat(fields[2], 32)
	if err != nil {
		return Row{}, err
	}
	flag, err := strconv.ParseInt(fields[3], 10, 8)
	if err != nil {
		return Row{}, err
	}
	return Row{TS: ts, SID: int32(sid), Value: float32(value), Flag: int8(flag)}, nil
}
