package http

import (
	"math"
	"strconv"
	"strings"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
)

// PotentialWin calcula o lucro de uma odd americana ("+150", "-110"),
// arredondado ao centavo. Odd ilegível ou zero resulta em 0.
func PotentialWin(amount model.Cents, odds string) model.Cents {
	o, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(odds), "+"), 64)
	if err != nil || o == 0 || math.IsNaN(o) || math.IsInf(o, 0) {
		return 0
	}
	if o > 0 {
		return model.Cents(math.Round(float64(amount) * o / 100))
	}
	return model.Cents(math.Round(float64(amount) * 100 / -o))
}
