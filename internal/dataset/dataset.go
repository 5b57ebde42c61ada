// Package dataset parses temporal transactional records into an in-memory
// model: an ordered transaction map keyed by TransactionIndex and a timestamp
// count map keyed by RawTimestamp.
//
// For line input the two maps do NOT share a key space: transactions are keyed
// by the ordinal of the accepted line, counts by the timestamp value written in
// the line. The distinct named types keep them apart.
package dataset

import "sort"

// TransactionIndex identifies a transaction in the transaction map.
type TransactionIndex int64

// RawTimestamp is a timestamp value exactly as it appears in the input.
type RawTimestamp int64

// Transaction is the item sequence recorded under one key.
type Transaction struct {
	Index TransactionIndex `json:"index"`
	Items []string         `json:"items"`
}

// Database is the parsed dataset. It is built once by a parser and is
// read-only afterwards; accessors return copies.
type Database struct {
	order           []TransactionIndex
	transactions    map[TransactionIndex][]string
	timestampCounts *OrderedMap[RawTimestamp, int]
}

// NewDatabase creates an empty database
func NewDatabase() *Database {
	return &Database{
		transactions:    make(map[TransactionIndex][]string),
		timestampCounts: NewOrderedMap[RawTimestamp, int](0),
	}
}

// put stores items under idx; an existing key keeps its position.
func (db *Database) put(idx TransactionIndex, items []string) {
	if _, exists := db.transactions[idx]; !exists {
		db.order = append(db.order, idx)
	}
	db.transactions[idx] = items
}

// countTimestamp increments the count recorded for ts
func (db *Database) countTimestamp(ts RawTimestamp) {
	n, _ := db.timestampCounts.Get(ts)
	db.timestampCounts.Set(ts, n+1)
}

// Size returns the number of transactions
func (db *Database) Size() int {
	return len(db.order)
}

// IsEmpty reports whether no transaction was loaded
func (db *Database) IsEmpty() bool {
	return len(db.order) == 0
}

// Items returns a copy of the items recorded under idx
func (db *Database) Items(idx TransactionIndex) ([]string, bool) {
	items, ok := db.transactions[idx]
	if !ok {
		return nil, false
	}
	out := make([]string, len(items))
	copy(out, items)
	return out, true
}

// Indices returns transaction keys in insertion order
func (db *Database) Indices() []TransactionIndex {
	out := make([]TransactionIndex, len(db.order))
	copy(out, db.order)
	return out
}

// SortedIndices returns transaction keys in ascending order
func (db *Database) SortedIndices() []TransactionIndex {
	out := db.Indices()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Transactions returns all transactions in insertion order
func (db *Database) Transactions() []Transaction {
	out := make([]Transaction, 0, len(db.order))
	for _, idx := range db.order {
		items, _ := db.Items(idx)
		out = append(out, Transaction{Index: idx, Items: items})
	}
	return out
}

// SortedTransactions returns all transactions ordered by key
func (db *Database) SortedTransactions() []Transaction {
	out := db.Transactions()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Lengths returns the size of every transaction, in insertion order
func (db *Database) Lengths() []int {
	out := make([]int, len(db.order))
	for i, idx := range db.order {
		out[i] = len(db.transactions[idx])
	}
	return out
}

// TimestampCounts returns a copy of the per-timestamp transaction counts
func (db *Database) TimestampCounts() *OrderedMap[RawTimestamp, int] {
	return db.timestampCounts.Clone()
}
