package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/user/dealwatch/internal/entity"
)

// decimalNumber admits plain decimal notation only; strconv also accepts hex floats,
// underscores and named infinities, none of which are prices.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParsePrice converts price text such as "$1,234.56" to a number. Text that does not parse
// to a finite, non-negative value yields +Inf, which every threshold rejects.
func ParsePrice(text string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, text)

	cleaned = strings.TrimSpace(cleaned)
	if !decimalNumber.MatchString(cleaned) {
		return math.Inf(1)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return math.Inf(1)
	}
	return v
}

// PriceFilter accepts listings strictly below a threshold.
type PriceFilter struct {
	Threshold float64
}

// IsAcceptable reports whether the listing price is below the threshold.
// A price equal to the threshold is rejected.
func (f PriceFilter) IsAcceptable(l *entity.Listing) bool {
	return l.Price < f.Threshold
}
