package service

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Load reads and parses the descriptor at path.
func Load(fs afero.Fs, path string) (*Service, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
	}

	return Parse(data, filepath.Dir(path))
}

// Parse parses descriptor data. servicePath is the directory the descriptor lives in.
func Parse(data []byte, servicePath string) (*Service, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: document must be a mapping", ErrInvalidDescriptor)
	}
	root := doc.Content[0]

	s := &Service{
		Path: servicePath,
		doc:  &doc,
	}

	name, err := parseServiceName(lookup(root, "service"))
	if err != nil {
		return nil, err
	}
	s.Name = name

	if n := lookup(root, "provider"); n != nil {
		if err := n.Decode(&s.Provider); err != nil {
			return nil, fmt.Errorf("%w: provider: %v", ErrInvalidDescriptor, err)
		}
	}

	if n := lookup(root, "custom"); n != nil && n.Kind == yaml.MappingNode {
		var custom map[string]any
		if err := n.Decode(&custom); err != nil {
			return nil, fmt.Errorf("%w: custom: %v", ErrInvalidDescriptor, err)
		}
		s.Custom = normalizeMap(custom)
	}

	if n := lookup(root, "package"); n != nil && n.Kind == yaml.MappingNode {
		s.Package = &Package{}
		if err := n.Decode(s.Package); err != nil {
			return nil, fmt.Errorf("%w: package: %v", ErrInvalidDescriptor, err)
		}
	}

	if n := lookup(root, "functions"); n != nil && n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			fn, err := parseFunction(n.Content[i].Value, n.Content[i+1])
			if err != nil {
				return nil, err
			}
			s.Functions = append(s.Functions, fn)
		}
	}

	return s, nil
}

// Stage returns the effective stage: override, then provider.stage, then DefaultStage.
// Unresolved variable references in provider.stage are ignored.
func (s *Service) Stage(override string) string {
	if override != "" {
		return override
	}
	if s.Provider.Stage != "" && !strings.Contains(s.Provider.Stage, "${") {
		return s.Provider.Stage
	}
	return DefaultStage
}

// Function returns the function declared under key.
func (s *Service) Function(key string) (*Function, bool) {
	for _, fn := range s.Functions {
		if fn.Key == key {
			return fn, true
		}
	}
	return nil, false
}

func parseServiceName(n *yaml.Node) (string, error) {
	if n == nil {
		return "", fmt.Errorf("%w: service name is required", ErrInvalidDescriptor)
	}

	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value != "" {
			return n.Value, nil
		}
	case yaml.MappingNode:
		if name := lookup(n, "name"); name != nil && name.Value != "" {
			return name.Value, nil
		}
	}

	return "", fmt.Errorf("%w: service name is required", ErrInvalidDescriptor)
}

type functionNode struct {
	Name    string      `yaml:"name"`
	Handler string      `yaml:"handler"`
	Runtime string      `yaml:"runtime"`
	Events  []yaml.Node `yaml:"events"`
	Package *Package    `yaml:"package"`
}

func parseFunction(key string, n *yaml.Node) (*Function, error) {
	fn := &Function{Key: key}
	if n.Kind != yaml.MappingNode {
		return fn, nil
	}

	var raw functionNode
	if err := n.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: functions.%s: %v", ErrInvalidDescriptor, key, err)
	}

	fn.Name = raw.Name
	fn.Handler = raw.Handler
	fn.Runtime = raw.Runtime
	fn.Package = raw.Package

	for i := range raw.Events {
		event, err := parseEvent(&raw.Events[i])
		if err != nil {
			return nil, fmt.Errorf("%w: functions.%s.events[%d]: %v", ErrInvalidDescriptor, key, i, err)
		}
		fn.Events = append(fn.Events, event)
	}

	return fn, nil
}

func parseEvent(n *yaml.Node) (Event, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) < 2 {
		return Event{}, nil
	}

	event := Event{Type: n.Content[0].Value}
	if event.Type != "http" {
		return event, nil
	}

	value := n.Content[1]
	switch value.Kind {
	case yaml.ScalarNode:
		// Shorthand form: "GET users/{id}".
		parts := strings.Fields(value.Value)
		http := &HTTPEvent{}
		if len(parts) > 0 {
			http.Method = strings.ToLower(parts[0])
		}
		if len(parts) > 1 {
			http.Path = parts[1]
		}
		event.HTTP = http
	case yaml.MappingNode:
		var m map[string]any
		if err := value.Decode(&m); err != nil {
			return Event{}, err
		}
		raw := m["about"]
		http := &HTTPEvent{About: normalize(raw), annotated: truthy(raw)}
		http.Path, _ = m["path"].(string)
		http.Method, _ = m["method"].(string)
		http.Private, _ = m["private"].(bool)
		event.HTTP = http
	}

	return event, nil
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// normalize converts decoded YAML into values encoding/json can marshal.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = normalize(item)
		}
		return m
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) {
			return nil
		}
		return val
	default:
		return val
	}
}

// truthy follows JavaScript truthiness for decoded YAML scalars. Collections are
// always truthy, even when empty.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case uint64:
		return val != 0
	case float64:
		return val != 0 && !math.IsNaN(val)
	default:
		return true
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}
