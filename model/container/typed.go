package container

import (
	"fmt"
	"sync"

	"github.com/viant/conveyor/model/signature"
	"github.com/viant/structology/conv"
)

var (
	converter    *conv.Converter
	converterMux sync.Mutex
)

// As returns value as T, converting it when it is not directly assignable
func As[T any](value interface{}) (T, error) {
	if ret, ok := value.(T); ok {
		return ret, nil
	}
	var ret T
	if value == nil {
		return ret, fmt.Errorf("failed to convert nil to %T", ret)
	}
	converterMux.Lock()
	defer converterMux.Unlock()
	if converter == nil {
		converter = conv.NewConverter(conv.DefaultOptions())
	}
	if err := converter.Convert(value, &ret); err != nil {
		return ret, fmt.Errorf("failed to convert %T to %T: %w", value, ret, err)
	}
	return ret, nil
}

// Value returns value registered under key as T
func Value[T any](c *Container, key string) (T, error) {
	value, err := c.Get(key)
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](value)
}

// ByType returns the only value of type T
func ByType[T any](c *Container) (T, error) {
	value, err := c.FindOne(signature.Of[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](value)
}
