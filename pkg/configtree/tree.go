// Package configtree holds the machine's structured YAML configuration
// and the narrow runtime contract the dispatcher consumes: set or read
// an item by slash-separated path, run the validation pass, run the
// after-parse pass. Parse and validation failures carry line numbers.
package configtree

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError is a structured parse or validation failure.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// PassFunc is one validation or after-parse hook. Hooks are registered
// by the subsystems that own parts of the tree.
type PassFunc func(t *Tree) error

// Tree is the parsed configuration document.
type Tree struct {
	doc *yaml.Node

	validators []PassFunc
	afterParse []PassFunc
}

// Parse builds a tree from YAML text.
func Parse(data []byte) (*Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Line: yamlErrorLine(err), Msg: err.Error()}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &ParseError{Msg: "empty configuration"}
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, &ParseError{Line: doc.Content[0].Line, Msg: "top level must be a mapping"}
	}
	return &Tree{doc: &doc}, nil
}

// yamlErrorLine extracts the line number from a yaml error message of
// the form "yaml: line N: ...", zero when absent.
func yamlErrorLine(err error) int {
	msg := err.Error()
	idx := strings.Index(msg, "line ")
	if idx < 0 {
		return 0
	}
	line := 0
	for _, c := range msg[idx+5:] {
		if c < '0' || c > '9' {
			break
		}
		line = line*10 + int(c-'0')
	}
	return line
}

// root returns the top-level mapping node.
func (t *Tree) root() *yaml.Node {
	return t.doc.Content[0]
}

// lookup walks a slash-separated path through nested mappings,
// case-insensitively. It returns the value node, or nil.
func (t *Tree) lookup(path string) *yaml.Node {
	node := t.root()
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" || node.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if strings.EqualFold(node.Content[i].Value, seg) {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil
		}
		node = next
	}
	return node
}

// Get reads the item at the given path. Scalars return their value;
// branches return their YAML rendering. The second result reports
// whether the path named anything.
func (t *Tree) Get(path string) (string, bool) {
	node := t.lookup(path)
	if node == nil {
		return "", false
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value, true
	}
	rendered, err := yaml.Marshal(node)
	if err != nil {
		return "", false
	}
	return strings.TrimRight(string(rendered), "\n"), true
}

// Set writes a scalar item at the given path. The first result reports
// whether the path named a settable item; writing to a branch fails.
func (t *Tree) Set(path, value string) (bool, error) {
	node := t.lookup(path)
	if node == nil {
		return false, nil
	}
	if node.Kind != yaml.ScalarNode {
		return true, &ParseError{Line: node.Line, Msg: fmt.Sprintf("%s is not a settable item", path)}
	}
	node.SetString(value)
	return true, nil
}

// OnValidate registers a validation hook.
func (t *Tree) OnValidate(f PassFunc) {
	t.validators = append(t.validators, f)
}

// OnAfterParse registers an after-parse hook.
func (t *Tree) OnAfterParse(f PassFunc) {
	t.afterParse = append(t.afterParse, f)
}

// Validate runs all validation hooks, stopping at the first failure.
func (t *Tree) Validate() error {
	for _, f := range t.validators {
		if err := f(t); err != nil {
			return err
		}
	}
	return nil
}

// AfterParse runs all after-parse hooks, stopping at the first failure.
func (t *Tree) AfterParse() error {
	for _, f := range t.afterParse {
		if err := f(t); err != nil {
			return err
		}
	}
	return nil
}

// Dump writes the whole tree as YAML.
func (t *Tree) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(t.root())
}
