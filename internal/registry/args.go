package registry

import (
	"fmt"
	"strconv"
)

// argString returns positional argument i as a column name
func argString(args []interface{}, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %d must be a non-empty string, got %T", i, args[i])
	}
	return s, nil
}

// ArgList returns positional argument i as a list of literal values
func ArgList(args []interface{}, i int) ([]string, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("missing argument %d", i)
	}
	switch v := args[i].(type) {
	case []interface{}:
		out := make([]string, len(v))
		for j, item := range v {
			out[j] = Literal(item)
		}
		return out, nil
	case []string:
		return v, nil
	default:
		return nil, fmt.Errorf("argument %d must be a list, got %T", i, args[i])
	}
}

// Literal renders a YAML scalar the way it appears in raw CSV cells
func Literal(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// NoArgs rejects any positional argument
func NoArgs(args []interface{}) error {
	if len(args) > 0 {
		return fmt.Errorf("takes no arguments, got %d", len(args))
	}
	return nil
}
