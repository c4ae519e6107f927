package ads

import "github.com/shopspring/decimal"

type Stats struct {
	Total  int
	CPM    int
	Fixed  int
	Paid   int
	Unpaid int

	// Сумма прибыли по фиксированным размещениям.
	FixedProfit decimal.Decimal
	// Оценка выручки по CPM: cpm * охват / 1000, только для записей с охватом.
	CPMRevenue decimal.Decimal
	Reach      int64
	// CPM-записи без охвата.
	AwaitingReach int
}

var thousand = decimal.NewFromInt(1000)

func Summarize(recs []Record) Stats {
	s := Stats{FixedProfit: decimal.Zero, CPMRevenue: decimal.Zero}
	for _, r := range recs {
		s.Total++
		if r.PaymentStatus == StatusPaid {
			s.Paid++
		} else {
			s.Unpaid++
		}

		switch r.Type {
		case TypeCPM:
			s.CPM++
			if r.Reach == nil {
				s.AwaitingReach++
				continue
			}
			s.Reach += *r.Reach
			if r.CPM != nil {
				s.CPMRevenue = s.CPMRevenue.Add(r.CPM.Mul(decimal.NewFromInt(*r.Reach)).Div(thousand))
			}
		case TypeFixed:
			s.Fixed++
			if r.Reach != nil {
				s.Reach += *r.Reach
			}
			if r.Profit != nil {
				s.FixedProfit = s.FixedProfit.Add(*r.Profit)
			}
		}
	}
	return s
}
