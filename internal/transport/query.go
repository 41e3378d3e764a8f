package transport

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"

	"github.com/spf13/cast"
)

// EncodeQuery form-encodes a query mapping. Slices and arrays expand to
// repeated keys, nested maps contribute their values (in key order) under
// the outer key, and nil becomes an empty value. Keys are sorted.
func EncodeQuery(query map[string]any) string {
	if len(query) == 0 {
		return ""
	}
	values := url.Values{}
	for key, value := range query {
		appendQueryValue(values, key, value)
	}
	return values.Encode()
}

func appendQueryValue(values url.Values, key string, value any) {
	if value == nil {
		values.Add(key, "")
		return
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			values.Add(key, scalarString(value))
			return
		}
		for i := 0; i < rv.Len(); i++ {
			appendQueryValue(values, key, rv.Index(i).Interface())
		}
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			appendQueryValue(values, key, rv.MapIndex(k).Interface())
		}
	default:
		values.Add(key, scalarString(value))
	}
}

func scalarString(v any) string {
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
