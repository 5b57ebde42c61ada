// Package occurrence builds the dense binary item x transaction matrix of a
// dataset and derives its sparsity and density.
package occurrence

import (
	"github.com/soltixdb/dbstats/internal/analytics"
	"github.com/soltixdb/dbstats/internal/dataset"
)

// Matrix is a dense 0/1 occurrence matrix. Row i is Items[i], column j is
// Columns[j]. Building it costs O(items x transactions) in time and memory.
type Matrix struct {
	Items   []string
	Columns []dataset.TransactionIndex
	cells   [][]uint8
}

// Build creates the matrix. Rows follow ranking (normally the descending
// frequency order), columns follow the transaction insertion order.
func Build(db *dataset.Database, ranking []string) *Matrix {
	txs := db.Transactions()

	m := &Matrix{
		Items:   append([]string(nil), ranking...),
		Columns: make([]dataset.TransactionIndex, len(txs)),
		cells:   make([][]uint8, len(ranking)),
	}
	rowOf := make(map[string]int, len(ranking))
	for i, item := range ranking {
		rowOf[item] = i
		m.cells[i] = make([]uint8, len(txs))
	}

	for j, tx := range txs {
		m.Columns[j] = tx.Index
		for _, item := range tx.Items {
			if i, ok := rowOf[item]; ok {
				m.cells[i][j] = 1
			}
		}
	}
	return m
}

// Rows returns the number of items
func (m *Matrix) Rows() int {
	return len(m.cells)
}

// Cols returns the number of transactions
func (m *Matrix) Cols() int {
	return len(m.Columns)
}

// Size returns rows * cols
func (m *Matrix) Size() int {
	return m.Rows() * m.Cols()
}

// At returns the cell value
func (m *Matrix) At(row, col int) uint8 {
	return m.cells[row][col]
}

// Row returns a copy of the row of item i
func (m *Matrix) Row(i int) []uint8 {
	return append([]uint8(nil), m.cells[i]...)
}

// count returns the number of cells equal to v
func (m *Matrix) count(v uint8) int {
	n := 0
	for _, row := range m.cells {
		for _, c := range row {
			if c == v {
				n++
			}
		}
	}
	return n
}

// Sparsity is the fraction of zero cells
func (m *Matrix) Sparsity() (float64, error) {
	if m.Size() == 0 {
		return 0, analytics.ErrEmptyDataset
	}
	return float64(m.count(0)) / float64(m.Size()), nil
}

// Density is the fraction of one cells. It is counted from the cells again
// rather than derived from Sparsity, so the two may not sum to exactly 1.
func (m *Matrix) Density() (float64, error) {
	if m.Size() == 0 {
		return 0, analytics.ErrEmptyDataset
	}
	return float64(m.count(1)) / float64(m.Size()), nil
}
