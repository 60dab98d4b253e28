package storage

import "github.com/neo4j/neo4j-go-driver/v5/neo4j"

// Cursor iterates a fully buffered set of query records. Buffering happens
// when the query runs, so iteration itself cannot fail; query errors surface
// from the call that produced the cursor.
type Cursor struct {
	records []*neo4j.Record
	pos     int
}

// NewCursor wraps already collected records.
func NewCursor(records []*neo4j.Record) *Cursor {
	return &Cursor{records: records, pos: -1}
}

// Next advances the cursor and reports whether a record is available.
func (c *Cursor) Next() bool {
	if c.pos < len(c.records) {
		c.pos++
	}

	return c.pos < len(c.records)
}

// Record returns the record under the cursor. It is nil before the first
// Next and after Next has returned false.
func (c *Cursor) Record() *neo4j.Record {
	if c.pos < 0 || c.pos >= len(c.records) {
		return nil
	}

	return c.records[c.pos]
}

// Collect returns all records not yet consumed and exhausts the cursor.
func (c *Cursor) Collect() []*neo4j.Record {
	start := c.pos + 1
	if start > len(c.records) {
		start = len(c.records)
	}

	c.pos = len(c.records)

	return c.records[start:]
}

// Len returns the total number of buffered records.
func (c *Cursor) Len() int {
	return len(c.records)
}
