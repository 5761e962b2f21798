package config

import (
	"fmt"
	"io"
	"reflect"
	"strings"
)

const masked = "****"

// PrintConfig writes every env-tagged value to w, one per line. Passwords
// and secrets are masked.
func PrintConfig(w io.Writer, cfg *Config) {
	printStruct(w, reflect.ValueOf(cfg).Elem())
}

func printStruct(w io.Writer, v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, ok := field.Tag.Lookup("env")
		if !ok {
			if v.Field(i).Kind() == reflect.Struct {
				printStruct(w, v.Field(i))
			}
			continue
		}

		value := fmt.Sprint(v.Field(i).Interface())
		if isSecret(name) && value != "" {
			value = masked
		}
		fmt.Fprintf(w, "%s=%s\n", name, value)
	}
}

func isSecret(name string) bool {
	return strings.Contains(name, "PASSWORD") || strings.Contains(name, "SECRET")
}
