package service

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Apply writes the patch's function definition under its key, replacing any existing
// entry under that key. Other functions are left untouched.
func (s *Service) Apply(p *Patch) error {
	if p == nil || p.Function == nil {
		return nil
	}
	if p.Key == "" {
		return fmt.Errorf("%w: patch key is required", ErrInvalidDescriptor)
	}

	root := s.root()
	functions := lookup(root, "functions")
	if functions == nil || functions.Kind != yaml.MappingNode {
		functions = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		setKey(root, "functions", functions)
	}

	var value yaml.Node
	if err := value.Encode(p.Function); err != nil {
		return fmt.Errorf("encoding function %s: %w", p.Key, err)
	}
	setKey(functions, p.Key, &value)

	fn := definitionToFunction(p.Key, p.Function)
	for i, existing := range s.Functions {
		if existing.Key == p.Key {
			s.Functions[i] = fn
			return nil
		}
	}
	s.Functions = append(s.Functions, fn)

	return nil
}

// Marshal encodes the full descriptor, including keys the model does not interpret.
func (s *Service) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(s.document()); err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}

	return buf.Bytes(), nil
}

// Write encodes the descriptor to path, creating parent directories.
func (s *Service) Write(fs afero.Fs, path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing descriptor %s: %w", path, err)
	}

	return nil
}

func (s *Service) document() *yaml.Node {
	if s.doc == nil {
		root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		setKey(root, "service", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Name})
		s.doc = &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	}
	return s.doc
}

func (s *Service) root() *yaml.Node {
	return s.document().Content[0]
}

func setKey(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

func definitionToFunction(key string, def *FunctionDefinition) *Function {
	fn := &Function{
		Key:     key,
		Name:    def.Name,
		Handler: def.Handler,
		Runtime: def.Runtime,
		Package: def.Package,
	}
	for _, e := range def.Events {
		if e.HTTP == nil {
			continue
		}
		fn.Events = append(fn.Events, Event{
			Type: "http",
			HTTP: &HTTPEvent{
				Path:    e.HTTP.Path,
				Method:  e.HTTP.Method,
				Private: e.HTTP.Private,
			},
		})
	}
	return fn
}
