package stats

import "fmt"

// Summary is the scalar fingerprint of a dataset. A statistic that is
// undefined for this dataset is nil and its error is listed in Errors.
type Summary struct {
	DatabaseSize int `json:"database_size"`
	ItemCount    int `json:"item_count"`

	MinTransactionLength    *int     `json:"min_transaction_length"`
	AvgTransactionLength    *float64 `json:"avg_transaction_length"`
	MaxTransactionLength    *int     `json:"max_transaction_length"`
	StdDevTransactionLength *float64 `json:"stddev_transaction_length"`
	VarianceTransactionLen  *float64 `json:"variance_transaction_length"`

	MinInterArrivalPeriod *int64   `json:"min_inter_arrival_period"`
	AvgInterArrivalPeriod *float64 `json:"avg_inter_arrival_period"`
	MaxInterArrivalPeriod *int64   `json:"max_inter_arrival_period"`
	StdDevPeriod          *float64 `json:"stddev_period"`

	MinPeriodicity *int64   `json:"min_periodicity"`
	AvgPeriodicity *float64 `json:"avg_periodicity"`
	MaxPeriodicity *int64   `json:"max_periodicity"`

	Sparsity *float64 `json:"sparsity"`
	Density  *float64 `json:"density"`

	Errors map[string]string `json:"errors,omitempty"`
}

// record stores v in dst, or the error under name
func record[T any](sum *Summary, name string, dst **T, v T, err error) {
	if err != nil {
		if sum.Errors == nil {
			sum.Errors = make(map[string]string)
		}
		sum.Errors[name] = err.Error()
		return
	}
	*dst = &v
}

// Summarize evaluates every scalar metric once. The occurrence matrix is
// built a single time for both sparsity and density.
func (s *Stats) Summarize() Summary {
	sum := Summary{
		DatabaseSize: s.DatabaseSize(),
		ItemCount:    s.TotalNumberOfItems(),
	}

	i, err := s.MinimumTransactionLength()
	record(&sum, "min_transaction_length", &sum.MinTransactionLength, i, err)
	f, err := s.AverageTransactionLength()
	record(&sum, "avg_transaction_length", &sum.AvgTransactionLength, f, err)
	i, err = s.MaximumTransactionLength()
	record(&sum, "max_transaction_length", &sum.MaxTransactionLength, i, err)
	f, err = s.StandardDeviationTransactionLength()
	record(&sum, "stddev_transaction_length", &sum.StdDevTransactionLength, f, err)
	f, err = s.VarianceTransactionLength()
	record(&sum, "variance_transaction_length", &sum.VarianceTransactionLen, f, err)

	p, err := s.MinimumInterArrivalPeriod()
	record(&sum, "min_inter_arrival_period", &sum.MinInterArrivalPeriod, p, err)
	f, err = s.AverageInterArrivalPeriod()
	record(&sum, "avg_inter_arrival_period", &sum.AvgInterArrivalPeriod, f, err)
	p, err = s.MaximumInterArrivalPeriod()
	record(&sum, "max_inter_arrival_period", &sum.MaxInterArrivalPeriod, p, err)
	f, err = s.StandardDeviationPeriod()
	record(&sum, "stddev_period", &sum.StdDevPeriod, f, err)

	p, err = s.MinimumPeriodOfItem()
	record(&sum, "min_periodicity", &sum.MinPeriodicity, p, err)
	f, err = s.AveragePeriodOfItem()
	record(&sum, "avg_periodicity", &sum.AvgPeriodicity, f, err)
	p, err = s.MaximumPeriodOfItem()
	record(&sum, "max_periodicity", &sum.MaxPeriodicity, p, err)

	m := s.Matrix()
	f, err = m.Sparsity()
	record(&sum, "sparsity", &sum.Sparsity, f, err)
	f, err = m.Density()
	record(&sum, "density", &sum.Density, f, err)

	return sum
}

// Fields flattens the summary into name/value pairs in report order.
// Undefined statistics carry a nil value.
func (sum Summary) Fields() []Field {
	return []Field{
		{"database_size", sum.DatabaseSize},
		{"item_count", sum.ItemCount},
		{"min_transaction_length", deref(sum.MinTransactionLength)},
		{"avg_transaction_length", deref(sum.AvgTransactionLength)},
		{"max_transaction_length", deref(sum.MaxTransactionLength)},
		{"stddev_transaction_length", deref(sum.StdDevTransactionLength)},
		{"variance_transaction_length", deref(sum.VarianceTransactionLen)},
		{"min_inter_arrival_period", deref(sum.MinInterArrivalPeriod)},
		{"avg_inter_arrival_period", deref(sum.AvgInterArrivalPeriod)},
		{"max_inter_arrival_period", deref(sum.MaxInterArrivalPeriod)},
		{"stddev_period", deref(sum.StdDevPeriod)},
		{"min_periodicity", deref(sum.MinPeriodicity)},
		{"avg_periodicity", deref(sum.AvgPeriodicity)},
		{"max_periodicity", deref(sum.MaxPeriodicity)},
		{"sparsity", deref(sum.Sparsity)},
		{"density", deref(sum.Density)},
	}
}

// Field is one named statistic
type Field struct {
	Name  string
	Value interface{}
}

func (f Field) String() string {
	if f.Value == nil {
		return fmt.Sprintf("%s=undefined", f.Name)
	}
	return fmt.Sprintf("%s=%v", f.Name, f.Value)
}

func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
