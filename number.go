package cococonv

// Numeric values read from annotation files.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Number is a JSON number that remembers whether it is an integer. Literals such as 3.0 whose
// decimal value is integral are stored as integers, so pixel coordinates are written back without
// a fractional part. The zero value is the integer 0.
type Number struct {
	i       int64
	f       float64
	isFloat bool
}

// Int returns the integer Number i.
func Int(i int64) Number {
	return Number{i: i}
}

// Float returns the floating-point Number f.
func Float(f float64) Number {
	return Number{f: f, isFloat: true}
}

// ParseNumber parses the JSON number literal s. The literal is read as an exact decimal; it
// becomes an integer when it has no fractional part and fits into an int64, a float otherwise.
func ParseNumber(s string) (Number, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Number{}, fmt.Errorf("%w: invalid number %q", ErrParse, s)
	}
	if d.IsInteger() {
		if bi := d.BigInt(); bi.IsInt64() {
			return Int(bi.Int64()), nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}, fmt.Errorf("%w: number %q out of range", ErrParse, s)
	}
	return Float(f), nil
}

// IsInt reports whether n holds an integer.
func (n Number) IsInt() bool {
	return !n.isFloat
}

// Float64 returns n as a float64.
func (n Number) Float64() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// IsZero reports whether n equals zero.
func (n Number) IsZero() bool {
	return n.Float64() == 0
}

// Sub returns n - m. The result is an integer if both operands are.
func (n Number) Sub(m Number) Number {
	if !n.isFloat && !m.isFloat {
		return Int(n.i - m.i)
	}
	return Float(n.Float64() - m.Float64())
}

// Mul returns n * m. The result is an integer if both operands are.
func (n Number) Mul(m Number) Number {
	if !n.isFloat && !m.isFloat {
		return Int(n.i * m.i)
	}
	return Float(n.Float64() * m.Float64())
}

func (n Number) String() string {
	b, err := n.MarshalJSON()
	if err != nil {
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	}
	return string(b)
}

// MarshalJSON writes integers without a fractional part. Floats use the shortest representation
// that round-trips, in exponent notation below 1e-4 and from 1e16 on; integral floats in fixed
// notation keep a ".0" suffix.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.isFloat {
		return strconv.AppendInt(nil, n.i, 10), nil
	}
	if math.IsInf(n.f, 0) || math.IsNaN(n.f) {
		return nil, fmt.Errorf("unsupported number: %v", n.f)
	}

	abs := math.Abs(n.f)
	format := byte('f')
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		format = 'e'
	}
	b := strconv.AppendFloat(nil, n.f, format, -1, 64)
	if format == 'f' && n.f == math.Trunc(n.f) {
		b = append(b, ".0"...)
	}
	return b, nil
}

// UnmarshalJSON parses a JSON number literal with ParseNumber.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || !(b[0] == '-' || (b[0] >= '0' && b[0] <= '9')) {
		return fmt.Errorf("%w: expected a number, got %s", ErrParse, b)
	}
	v, err := ParseNumber(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// Object is a JSON object that is passed through to the output. Numbers inside it are Number
// values.
type Object map[string]interface{}

// number returns the Number stored under key.
func (o Object) number(key string) (Number, bool) {
	n, ok := o[key].(Number)
	return n, ok
}

// normalizeNumbers replaces every json.Number in v, recursively, with a Number.
func normalizeNumbers(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case json.Number:
		return ParseNumber(v.String())
	case map[string]interface{}:
		for k, e := range v {
			n, err := normalizeNumbers(e)
			if err != nil {
				return nil, err
			}
			v[k] = n
		}
		return v, nil
	case Object:
		_, err := normalizeNumbers(map[string]interface{}(v))
		return v, err
	case []interface{}:
		for i, e := range v {
			n, err := normalizeNumbers(e)
			if err != nil {
				return nil, err
			}
			v[i] = n
		}
		return v, nil
	}
	return v, nil
}

// normalizeObjects applies normalizeNumbers to each object in objs.
func normalizeObjects(objs []Object) error {
	for _, o := range objs {
		if _, err := normalizeNumbers(o); err != nil {
			return err
		}
	}
	return nil
}
