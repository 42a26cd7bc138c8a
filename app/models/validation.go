package models

import (
	"reflect"
	"strings"
)

// JSONFieldName names a struct field the way clients see it: the json tag,
// or the lower-cased Go name when the field is not serialized.
func JSONFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(fld.Name)
	}
	return name
}
