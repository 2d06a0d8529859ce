package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decimal is a float64 amount. The rental API serialises DECIMAL columns as
// strings, so decoding accepts both JSON numbers and numeric strings.
// Encoding always emits a number rounded to two places.
type Decimal float64

// Round returns d rounded half away from zero to two decimal places.
func (d Decimal) Round() Decimal {
	return Decimal(math.Round(float64(d)*100) / 100)
}

func (d Decimal) Float() float64 {
	return float64(d)
}

// String renders two fixed decimals, the format shown to users.
func (d Decimal) String() string {
	return strconv.FormatFloat(float64(d.Round()), 'f', 2, 64)
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(d.Round()), 'f', -1, 64)), nil
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*d = 0
			return nil
		}
		data = []byte(s)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid decimal %q", string(data))
	}
	*d = Decimal(v)
	return nil
}
