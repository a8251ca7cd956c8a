package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Cents é um valor monetário em centavos. No JSON aparece em unidades
// (12.5), formato usado pelo frontend e pelo arquivo de usuários.
type Cents int64

// ToCents arredonda um valor em unidades para o centavo mais próximo.
func ToCents(units float64) Cents { return Cents(math.Round(units * 100)) }

// Units devolve o valor em unidades, só para exibição e serialização.
func (c Cents) Units() float64 { return float64(c) / 100 }

func (c Cents) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, c.Units(), 'f', -1, 64), nil
}

// UnmarshalJSON aceita número, string numérica ou null.
func (c *Cents) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("amount: %w", err)
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("amount: invalid value %q", s)
	}
	*c = ToCents(v)
	return nil
}
