package opcua

import (
	"fmt"
	"math"
	"reflect"

	"github.com/gopcua/opcua/ua"

	"github.com/ghalamif/SimRecorder/internal/domain"
)

// variantValues converts a scalar or array variant into at most count
// values of type t.
func variantValues(t domain.VarType, v *ua.Variant, count int) ([]domain.Value, error) {
	if v == nil || v.Value() == nil {
		return nil, fmt.Errorf("empty variant")
	}
	raw := v.Value()
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice {
		val, err := scalarValue(t, raw)
		if err != nil {
			return nil, err
		}
		return []domain.Value{val}, nil
	}

	n := rv.Len()
	if n > count {
		n = count
	}
	out := make([]domain.Value, 0, n)
	for i := 0; i < n; i++ {
		val, err := scalarValue(t, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, val)
	}
	return out, nil
}

func scalarValue(t domain.VarType, raw any) (domain.Value, error) {
	switch t {
	case domain.VarChar:
		if s, ok := raw.(string); ok && len(s) == 1 {
			return domain.Char(s[0]), nil
		}
		i, ok := variantToInt(raw)
		if !ok || i < 0 || i > math.MaxUint8 {
			return domain.Value{}, unsupported(t, raw)
		}
		return domain.Char(byte(i)), nil

	case domain.VarBool:
		if b, ok := raw.(bool); ok {
			return domain.Bool(b), nil
		}
		i, ok := variantToInt(raw)
		if !ok {
			return domain.Value{}, unsupported(t, raw)
		}
		return domain.Bool(i != 0), nil

	case domain.VarInt:
		i, ok := variantToInt(raw)
		if !ok || i < math.MinInt32 || i > math.MaxInt32 {
			return domain.Value{}, unsupported(t, raw)
		}
		return domain.Int(int32(i)), nil

	case domain.VarBitField:
		i, ok := variantToInt(raw)
		if !ok || i < 0 || i > math.MaxUint32 {
			return domain.Value{}, unsupported(t, raw)
		}
		return domain.BitField(uint32(i)), nil

	case domain.VarFloat:
		f, ok := variantToFloat(raw)
		if !ok {
			return domain.Value{}, unsupported(t, raw)
		}
		return domain.Float(float32(f)), nil

	case domain.VarDouble:
		f, ok := variantToFloat(raw)
		if !ok {
			return domain.Value{}, unsupported(t, raw)
		}
		return domain.Double(f), nil
	}
	return domain.Value{}, unsupported(t, raw)
}

func unsupported(t domain.VarType, raw any) error {
	return fmt.Errorf("cannot store %T as %s", raw, t)
}

func variantToInt(raw any) (int64, bool) {
	switch val := raw.(type) {
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case int8:
		return int64(val), true
	case uint8:
		return int64(val), true
	case int16:
		return int64(val), true
	case uint16:
		return int64(val), true
	case int32:
		return int64(val), true
	case uint32:
		return int64(val), true
	case int64:
		return val, true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	default:
		return 0, false
	}
}

func variantToFloat(raw any) (float64, bool) {
	switch val := raw.(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case bool:
		return 0, false
	default:
		i, ok := variantToInt(raw)
		return float64(i), ok
	}
}
