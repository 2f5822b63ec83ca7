// Package service models a serverless application descriptor (serverless.yml).
package service

import (
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDescriptor is returned when a descriptor cannot be interpreted.
var ErrInvalidDescriptor = errors.New("invalid service descriptor")

// DefaultStage is used when neither a flag nor the provider declares a stage.
const DefaultStage = "dev"

// Service is the in-memory service model of one application.
type Service struct {
	// Name is the service name.
	Name string
	// Path is the directory that contains the descriptor.
	Path string
	// Provider holds the provider block.
	Provider Provider
	// Custom is the decoded custom block, nil when absent.
	Custom map[string]any
	// Package is the service-level packaging rule, nil when absent.
	Package *Package
	// Functions lists declared functions in declaration order.
	Functions []*Function

	doc *yaml.Node
}

// Provider is the subset of the provider block the tool reads.
type Provider struct {
	Name    string `yaml:"name"`
	Runtime string `yaml:"runtime"`
	Stage   string `yaml:"stage"`
}

// Package is a packaging rule.
type Package struct {
	Individually bool     `yaml:"individually,omitempty" json:"individually,omitempty"`
	Exclude      []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Include      []string `yaml:"include,omitempty" json:"include,omitempty"`
}

// Function is a declared function.
type Function struct {
	// Key is the key under functions.
	Key string
	// Name is the explicit deployed name, empty when not set.
	Name    string
	Handler string
	Runtime string
	Events  []Event
	Package *Package
}

// DisplayName returns the explicit name if present, otherwise the key.
func (f *Function) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Key
}

// HTTPEvents returns the function's http events in order.
func (f *Function) HTTPEvents() []*HTTPEvent {
	var events []*HTTPEvent
	for _, e := range f.Events {
		if e.HTTP != nil {
			events = append(events, e.HTTP)
		}
	}
	return events
}

// Event is one trigger event attached to a function.
type Event struct {
	// Type is the single key of the event mapping (http, schedule, sqs, ...).
	Type string
	// HTTP is set for http events.
	HTTP *HTTPEvent
}

// HTTPEvent is an http trigger.
type HTTPEvent struct {
	Path    string
	Method  string
	Private bool
	// About is the opaque about annotation, with non-finite numbers replaced by nil.
	About any

	annotated bool
}

// HasAbout reports whether the event carries an about annotation. Annotations that are
// null, false, empty strings or zero count as absent.
func (e *HTTPEvent) HasAbout() bool {
	return e.annotated
}

// FunctionDefinition is a function entry written into the descriptor.
type FunctionDefinition struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Handler     string            `yaml:"handler" json:"handler"`
	Runtime     string            `yaml:"runtime,omitempty" json:"runtime,omitempty"`
	MemorySize  int               `yaml:"memorySize" json:"memorySize"`
	Timeout     int               `yaml:"timeout" json:"timeout"`
	Events      []EventDefinition `yaml:"events" json:"events"`
	Package     *Package          `yaml:"package,omitempty" json:"package,omitempty"`
}

// EventDefinition is an event entry of a FunctionDefinition.
type EventDefinition struct {
	HTTP *HTTPDefinition `yaml:"http,omitempty" json:"http,omitempty"`
}

// HTTPDefinition is an http event entry.
type HTTPDefinition struct {
	Path    string `yaml:"path" json:"path"`
	Method  string `yaml:"method" json:"method"`
	Private bool   `yaml:"private" json:"private"`
}

// Patch registers a function definition under a key.
type Patch struct {
	Key      string
	Function *FunctionDefinition
}
