package param

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// Flatten normalizes an argument list for statement binding. Nested
// slices (typically produced by named-parameter expansion) contribute
// one argument per element, in element order; []byte stays a single
// blob; values implementing driver.Valuer pass through untouched.
// Positions in the result are the 1-based bind positions.
func Flatten(args []interface{}) ([]interface{}, error) {
	out := make([]interface{}, 0, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case nil:
			out = append(out, nil)
			continue
		case []byte:
			out = append(out, v)
			continue
		case driver.Valuer:
			out = append(out, v)
			continue
		case time.Time:
			out = append(out, v)
			continue
		}
		rv := reflect.ValueOf(a)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			if rv.Len() == 0 {
				return nil, fmt.Errorf("param: argument %d is an empty collection", i+1)
			}
			for j := 0; j < rv.Len(); j++ {
				out = append(out, rv.Index(j).Interface())
			}
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// ScanOut converts a raw driver value received for an OUT or INOUT
// parameter into the Go value implied by the declared type. Exact
// numeric types round-trip through decimal.Decimal so no precision is
// lost on the way out.
func ScanOut(d Descriptor, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	switch d.Type {
	case TypeDecimal, TypeNumeric:
		return toDecimal(raw)
	case TypeBit:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case int64:
			return v != 0, nil
		}
		return nil, fmt.Errorf("param: cannot read %T as %s for %q", raw, d.Type, d.Name)
	case TypeTinyInt, TypeSmallInt, TypeInt, TypeBigInt:
		switch v := raw.(type) {
		case int64:
			return v, nil
		case []byte:
			return decimalInt(v)
		}
		return nil, fmt.Errorf("param: cannot read %T as %s for %q", raw, d.Type, d.Name)
	case TypeFloat, TypeReal:
		if f, ok := raw.(float64); ok {
			return f, nil
		}
		return nil, fmt.Errorf("param: cannot read %T as %s for %q", raw, d.Type, d.Name)
	case TypeChar, TypeVarChar, TypeText:
		switch v := raw.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		}
		return nil, fmt.Errorf("param: cannot read %T as %s for %q", raw, d.Type, d.Name)
	case TypeDate, TypeTime, TypeDateTime:
		if ts, ok := raw.(time.Time); ok {
			return ts, nil
		}
		return nil, fmt.Errorf("param: cannot read %T as %s for %q", raw, d.Type, d.Name)
	case TypeBinary, TypeVarBinary:
		if b, ok := raw.([]byte); ok {
			return b, nil
		}
		return nil, fmt.Errorf("param: cannot read %T as %s for %q", raw, d.Type, d.Name)
	}
	return raw, nil
}

func toDecimal(raw interface{}) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	}
	return decimal.Decimal{}, fmt.Errorf("param: cannot read %T as decimal", raw)
}

func decimalInt(b []byte) (int64, error) {
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return 0, err
	}
	return d.IntPart(), nil
}
