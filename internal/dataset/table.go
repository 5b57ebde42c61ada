package dataset

import "fmt"

// Recognised column names of a tabular input
const (
	ColumnTS           = "TS"
	ColumnTSLower      = "ts"
	ColumnTransactions = "Transactions"
	ColumnPatterns     = "Patterns"
)

// Row is one record of a tabular input
type Row struct {
	Timestamp RawTimestamp `json:"ts"`
	Items     []string     `json:"items"`
}

// Table is an in-memory tabular input with a timestamp column and a
// transaction (or pattern) column.
type Table struct {
	TimestampColumn string `json:"timestamp_column"`
	ItemsColumn     string `json:"items_column"`
	Rows            []Row  `json:"rows"`
}

// Validate checks the column names
func (t Table) Validate() error {
	switch t.TimestampColumn {
	case ColumnTS, ColumnTSLower:
	default:
		return fmt.Errorf("%w: timestamp column %q (want %s or %s)",
			ErrUnknownColumns, t.TimestampColumn, ColumnTS, ColumnTSLower)
	}

	switch t.ItemsColumn {
	case ColumnTransactions, ColumnPatterns:
	default:
		return fmt.Errorf("%w: items column %q (want %s or %s)",
			ErrUnknownColumns, t.ItemsColumn, ColumnTransactions, ColumnPatterns)
	}

	return nil
}

// FromTable builds a Database from a table. Timestamp values become the
// transaction keys: a repeated timestamp replaces the earlier items and keeps
// the first position. The count map counts every row per timestamp.
func (p *Parser) FromTable(t Table) (*Database, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	db := NewDatabase()
	if len(t.Rows) == 0 {
		p.logger.Warn("Table input is empty")
		return db, nil
	}

	for i, row := range t.Rows {
		if row.Timestamp <= 0 {
			return nil, &ParseError{
				Line:  i + 1,
				Field: fmt.Sprint(row.Timestamp),
				Err:   fmt.Errorf("timestamp must be positive"),
			}
		}
		items := make([]string, 0, len(row.Items))
		for _, item := range row.Items {
			if item != "" {
				items = append(items, item)
			}
		}
		db.put(TransactionIndex(row.Timestamp), items)
		db.countTimestamp(row.Timestamp)
	}

	if overwritten := len(t.Rows) - db.Size(); overwritten > 0 {
		p.logger.Warn("Duplicate timestamps overwrote earlier rows", "overwritten", overwritten)
	}

	return db, nil
}
