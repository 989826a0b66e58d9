package criteria

import (
	"strings"

	"github.com/viant/conveyor/service/dao"
)

const (
	// Status filters runs by status
	Status = "Status"
	// Unit filters runs by pipeline unit name
	Unit = "Unit"
)

// Match returns true when every recognised parameter accepts its field value.
// Unknown parameters are ignored.
func Match(fields map[string]string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		value, ok := lookup(fields, parameter.Name)
		if !ok {
			continue
		}
		if !accepts(value, parameter.Value) {
			return false
		}
	}
	return true
}

// FilterByStatus returns true when status parameter is absent or lists status
func FilterByStatus(status string, parameters []*dao.Parameter) bool {
	return Match(map[string]string{Status: status}, parameters)
}

func lookup(fields map[string]string, name string) (string, bool) {
	for k, v := range fields {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func accepts(value string, expect interface{}) bool {
	switch actual := expect.(type) {
	case string:
		return value == actual
	case []string:
		for _, s := range actual {
			if value == s {
				return true
			}
		}
		return false
	}
	return true
}
