package processor

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// ValidateRequired reports the first key, in order, whose value is missing
// or falsy.
func ValidateRequired(props map[string]any, keys ...string) error {
	for _, k := range keys {
		if falsy(props[k]) {
			return fmt.Errorf("required property '%s' is missing or empty", k)
		}
	}
	return nil
}

func falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case int:
		return x == 0
	case int64:
		return x == 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

func GetProperty(props map[string]any, key string, def any) any {
	if v, ok := props[key]; ok {
		return v
	}
	return def
}

func SafeInt(v any, def int) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return def
		}
		return int(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n)
		}
		return def
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n
		}
	}
	return def
}

func SafeFloat(v any, def float64) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
	}
	return def
}

func SafeBool(v any, def bool) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(x) {
		case "true", "1", "yes", "on":
			return true
		}
		return false
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	}
	return def
}

// SubstituteVariables replaces each {{name}} with its stringified value.
// Variables are applied in ascending name order and nil values are skipped.
func SubstituteVariables(text any, vars map[string]any) string {
	out := Stringify(text)
	names := make([]string, 0, len(vars))
	for k, v := range vars {
		if v != nil {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	for _, k := range names {
		out = strings.ReplaceAll(out, "{{"+k+"}}", Stringify(vars[k]))
	}
	return out
}

func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool, int, int64, json.Number:
		return fmt.Sprint(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// FileExists reports whether path is a regular file that can be opened for
// reading.
func FileExists(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func EnsureDirectory(path string) error {
	return os.MkdirAll(path, 0o755)
}

func DetectPlatform() string {
	return platformName(runtime.GOOS)
}

func platformName(goos string) string {
	switch goos {
	case "windows":
		return "windows"
	case "darwin":
		return "macos"
	case "linux":
		return "linux"
	case "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos", "aix":
		return "unix"
	}
	return "unknown"
}
