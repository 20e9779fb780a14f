package ops

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/rcliao/expense-assistant/internal/model"
)

// coerce keeps the arguments the schema declares and converts loosely typed
// values into the declared JSON type. Values that cannot be converted are
// rejected rather than guessed at.
func coerce(schema *jsonschema.Schema, raw model.Arguments) (model.Arguments, *model.StepFailure) {
	out := model.Arguments{}
	for name, prop := range schema.Properties {
		v, ok := raw[name]
		if !ok || v == nil {
			continue
		}
		cv, keep, err := coerceValue(schemaType(prop), v)
		if err != nil {
			return nil, model.Fail(model.InvalidArguments, "argument '%s': %v", name, err)
		}
		if keep {
			out[name] = cv
		}
	}
	return out, nil
}

func coerceValue(typ string, v any) (any, bool, error) {
	switch typ {
	case "string":
		return toString(v)
	case "integer":
		n, err := toInt(v)
		return n, err == nil, err
	case "array":
		list := toStrings(v)
		return list, len(list) > 0, nil
	default:
		return v, true, nil
	}
}

func toString(v any) (any, bool, error) {
	switch vv := v.(type) {
	case string:
		s := strings.TrimSpace(vv)
		return s, s != "", nil
	case float64, int, int64, bool:
		return fmt.Sprint(vv), true, nil
	}
	list := toStrings(v)
	switch len(list) {
	case 0:
		return nil, false, nil
	case 1:
		return list[0], true, nil
	default:
		return nil, false, fmt.Errorf("expects a single value, got %d (%s)", len(list), strings.Join(list, ", "))
	}
}

func toInt(v any) (int, error) {
	switch vv := v.(type) {
	case int:
		return vv, nil
	case int64:
		return int(vv), nil
	case float64:
		if vv != math.Trunc(vv) {
			return 0, fmt.Errorf("expects a whole number, got %v", vv)
		}
		return int(vv), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(vv))
		if err != nil {
			return 0, fmt.Errorf("expects a whole number, got '%s'", vv)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expects a whole number, got %T", v)
}

func toStrings(v any) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch vv := v.(type) {
	case string:
		add(vv)
	case []string:
		for _, s := range vv {
			add(s)
		}
	case []any:
		for _, e := range vv {
			if e != nil {
				add(fmt.Sprint(e))
			}
		}
	default:
		add(fmt.Sprint(vv))
	}
	return out
}
