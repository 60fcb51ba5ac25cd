package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

var allowedModelKeys = map[string]bool{
	"table":        true,
	"alias":        true,
	"columns":      true,
	"computable":   true,
	"relations":    true,
	"order":        true,
	"start":        true,
	"length":       true,
	"primary_keys": true,
	"types":        true,
}

var allowedRelationKeys = map[string]bool{
	"type":  true,
	"table": true,
	"fk":    true,
	"pk":    true,
	"on":    true,
	"where": true,
}

var allowedComputableKeys = map[string]bool{
	"source": true,
	"type":   true,
}

var allowedRelationTypes = map[string]bool{
	"belongs_to": true,
	"has_one":    true,
	"has_many":   true,
}

var allowedComputableTypes = map[string]bool{
	"int":      true,
	"string":   true,
	"bool":     true,
	"float":    true,
	"time":     true,
	"datetime": true,
	"date":     true,
	"UUID":     true,
}

func validateYAMLNode(node *yaml.Node, context string) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := validateYAMLNode(child, "model"); err != nil {
				return err
			}
		}

	case yaml.MappingNode:
		var allowedKeys map[string]bool
		switch context {
		case "model":
			allowedKeys = allowedModelKeys
		case "relation":
			allowedKeys = allowedRelationKeys
		case "computable-entry":
			allowedKeys = allowedComputableKeys
		}

		for i := 0; i < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			key := keyNode.Value

			if allowedKeys != nil && !allowedKeys[key] {
				return fmt.Errorf("unknown key '%s' in %s", key, context)
			}
			if context == "relation" && key == "type" && !allowedRelationTypes[valNode.Value] {
				return fmt.Errorf("unknown relation type '%s'", valNode.Value)
			}
			if context == "computable-entry" && key == "type" && !allowedComputableTypes[valNode.Value] {
				return fmt.Errorf("unknown type value '%s' in computable", valNode.Value)
			}

			nextContext := context
			switch {
			case context == "model" && key == "relations":
				nextContext = "relations-map"
			case context == "relations-map":
				nextContext = "relation"
			case context == "model" && key == "types":
				nextContext = "types-map"
			case context == "types-map":
				if !allowedComputableTypes[valNode.Value] {
					return fmt.Errorf("unknown type value '%s' for column %s", valNode.Value, key)
				}
			case context == "model" && key == "computable":
				nextContext = "computable-map"
			case context == "computable-map":
				nextContext = "computable-entry"
			case context == "model":
				nextContext = "model-value"
			}

			if err := validateYAMLNode(valNode, nextContext); err != nil {
				return err
			}
		}

	case yaml.SequenceNode:
		for _, item := range node.Content {
			if err := validateYAMLNode(item, context); err != nil {
				return err
			}
		}
	}

	return nil
}
