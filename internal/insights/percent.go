package insights

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// Percent is a percentage that may be +Inf when growing from zero.
// It marshals +Inf as the JSON string "Infinity".
type Percent float64

const infinity = "Infinity"

var percentType = reflect.TypeOf(Percent(0))

func (p Percent) IsInf() bool {
	return math.IsInf(float64(p), 1)
}

func (p Percent) MarshalJSON() ([]byte, error) {
	v := float64(p)
	switch {
	case math.IsInf(v, 1):
		return json.Marshal(infinity)
	case math.IsNaN(v) || math.IsInf(v, -1):
		return []byte("null"), nil
	default:
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	}
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != infinity {
			return &json.UnmarshalTypeError{Value: "string " + s, Type: percentType}
		}
		*p = Percent(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = Percent(f)
	return nil
}
