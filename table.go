package datalayers

import (
	"bytes"
	"context"
	"fmt"
)

type Table struct {
	c *Client

	// Database is the name of the database.
	//
	// This is optional and may be empty, in which case the database set by
	// UseDatabase applies.
	Database string
	// Table is the name of the table.
	Table string
}

func (c *Client) Table(database, tableName string) *Table {
	return &Table{
		c:        c,
		Database: database,
		Table:    tableName,
	}
}

func (t *Table) Drop(ctx context.Context) error {
	rs, err := t.c.Execute(ctx, fmt.Sprintf(`DROP TABLE %s`, t.Identifier()))
	if err != nil {
		return err
	}
	rs.Release()
	return nil
}

func (t *Table) Identifier() string {
	var b bytes.Buffer
	if t.Database != "" {
		b.WriteString(quoteIdent(t.Database, '`'))
		b.WriteByte('.')
	}
	b.WriteString(quoteIdent(t.Table, '`'))
	return b.String()
}

func quoteIdent(s string, r rune) string {
	var b bytes.Buffer
	b.WriteRune(r)
	for _, c := range s {
		switch c {
		case '\t':
			b.WriteString("\\t")
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\\':
			b.WriteString("\\\\")
		default:
			if c == r {
				b.WriteRune(c)
				b.WriteRune(c)
				break
			}

			if c < 0x20 {
				b.WriteString(fmt.Sprintf("\\x%02x", c))
				break
			}

			b.WriteRune(c)
		}
	}
	b.WriteRune(r)
	return b.String()
}
