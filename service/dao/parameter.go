package dao

// Parameter narrows List results, a multi value parameter matches any of its values
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a parameter
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
