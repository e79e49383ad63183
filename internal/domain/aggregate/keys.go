package aggregate

import "github.com/okian/aqframes/internal/domain/model"

// Category keys records by a categorical field.
func Category(name string) KeyFunc {
	return func(r model.Record) (string, bool) {
		return r.Category(name)
	}
}

// PeriodKey keys records by the period their date falls into.
// Label periods come from a category and use Category instead.
func PeriodKey(kind model.PeriodKind) KeyFunc {
	return func(r model.Record) (string, bool) {
		p, ok := model.PeriodOf(kind, r.Date)
		if !ok {
			return "", false
		}
		return p.Key(), true
	}
}
