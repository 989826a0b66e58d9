package yml

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node extends yaml.Node with traversal helpers
type Node yaml.Node

// Root returns the first content node of a document
func (n *Node) Root() *Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return (*Node)(n.Content[0])
	}
	return n
}

// Lookup returns mapping value for key matched case-insensitively
func (n *Node) Lookup(key string) *Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if strings.EqualFold(n.Content[i].Value, key) {
			return (*Node)(n.Content[i+1])
		}
	}
	return nil
}

// Items iterates sequence items
func (n *Node) Items(callback func(index int, node *Node) error) error {
	for i, item := range n.Content {
		if err := callback(i, (*Node)(item)); err != nil {
			return err
		}
	}
	return nil
}

// Pairs iterates mapping pairs in document order
func (n *Node) Pairs(callback func(key string, node *Node) error) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := callback(n.Content[i].Value, (*Node)(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns mapping keys in document order
func (n *Node) Keys() []string {
	var ret []string
	_ = n.Pairs(func(key string, _ *Node) error {
		ret = append(ret, key)
		return nil
	})
	return ret
}

// IsScalar returns true for scalar nodes
func (n *Node) IsScalar() bool { return n.Kind == yaml.ScalarNode }

// IsMapping returns true for mapping nodes
func (n *Node) IsMapping() bool { return n.Kind == yaml.MappingNode }

// IsSequence returns true for sequence nodes
func (n *Node) IsSequence() bool { return n.Kind == yaml.SequenceNode }

// Strings returns scalar or sequence of scalars as strings
func (n *Node) Strings() ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		ret := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: expected scalar item", item.Line)
			}
			ret = append(ret, item.Value)
		}
		return ret, nil
	}
	return nil, fmt.Errorf("line %d: expected scalar or sequence", n.Line)
}

// StringMap returns mapping of scalars
func (n *Node) StringMap() (map[string]string, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected mapping", n.Line)
	}
	ret := make(map[string]string, len(n.Content)/2)
	err := n.Pairs(func(key string, value *Node) error {
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: expected scalar value for %v", value.Line, key)
		}
		ret[key] = value.Value
		return nil
	})
	return ret, err
}

// Interface returns generic representation of the node
func (n *Node) Interface() interface{} {
	switch n.Kind {
	case yaml.DocumentNode:
		return n.Root().Interface()
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!bool":
			return strings.EqualFold(n.Value, "true")
		case "!!null":
			return nil
		case "!!float":
			f, _ := strconv.ParseFloat(n.Value, 64)
			return f
		case "!!int":
			i, _ := strconv.Atoi(n.Value)
			return i
		}
		return n.Value
	case yaml.MappingNode:
		aMap := make(map[string]interface{}, len(n.Content)/2)
		_ = n.Pairs(func(key string, value *Node) error {
			aMap[key] = value.Interface()
			return nil
		})
		return aMap
	case yaml.SequenceNode:
		aSlice := make([]interface{}, 0, len(n.Content))
		for _, item := range n.Content {
			aSlice = append(aSlice, (*Node)(item).Interface())
		}
		return aSlice
	case yaml.AliasNode:
		if n.Alias != nil {
			return (*Node)(n.Alias).Interface()
		}
	}
	return nil
}
