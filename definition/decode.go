package definition

import (
	"encoding/json"
	"strconv"

	"go.yaml.in/yaml/v4"
)

// decoded is a JSON-compatible tree plus the declaration order of every
// mapping, keyed by JSON Pointer.
type decoded struct {
	doc   any
	order map[string][]string
}

// keys returns the declared key order of the mapping at ptr.
func (d *decoded) keys(ptr string) []string {
	return d.order[ptr]
}

// decodeNode converts a YAML node into JSON-compatible values: mappings
// become map[string]any, numbers become json.Number. Key order is recorded
// so that declaration order survives for paths, methods, and responses.
func decodeNode(node *yaml.Node) *decoded {
	d := &decoded{order: make(map[string][]string)}
	d.doc = d.convert(node, "", 0)
	return d
}

// maxDecodeDepth guards against alias bombs and pathological nesting.
const maxDecodeDepth = 256

func (d *decoded) convert(node *yaml.Node, ptr string, depth int) any {
	if node == nil || depth > maxDecodeDepth {
		return nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil
		}
		return d.convert(node.Content[0], ptr, depth+1)
	case yaml.AliasNode:
		return d.convert(node.Alias, ptr, depth+1)
	case yaml.MappingNode:
		m := make(map[string]any, len(node.Content)/2)
		keys := make([]string, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if _, dup := m[key]; !dup {
				keys = append(keys, key)
			}
			m[key] = d.convert(node.Content[i+1], JoinPointer(ptr, key), depth+1)
		}
		d.order[ptr] = keys
		return m
	case yaml.SequenceNode:
		s := make([]any, len(node.Content))
		for i, item := range node.Content {
			s[i] = d.convert(item, JoinPointer(ptr, strconv.Itoa(i)), depth+1)
		}
		return s
	default:
		return scalarValue(node)
	}
}

func scalarValue(node *yaml.Node) any {
	switch node.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err == nil {
			return b
		}
	case "!!int":
		var i int64
		if err := node.Decode(&i); err == nil {
			return json.Number(strconv.FormatInt(i, 10))
		}
		return json.Number(node.Value)
	case "!!float":
		var f float64
		if err := node.Decode(&f); err == nil {
			if b, err := json.Marshal(f); err == nil {
				return json.Number(b)
			}
		}
	}
	return node.Value
}
