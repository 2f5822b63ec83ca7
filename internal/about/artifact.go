package about

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/valyala/fasttemplate"
)

var (
	ErrTemplateRead  = errors.New("reading about template")
	ErrArtifactWrite = errors.New("writing about artifact")
)

// Template token delimiters and names.
const (
	tokenStart = "{{"
	tokenEnd   = "}}"

	TokenCreationDate = "creationDate"
	TokenComponents   = "components"
	TokenOutputHeader = "outputHeader"
)

// AbsenceMarker is rendered for the output header when no format is configured.
const AbsenceMarker = "undefined"

// creationDateLayout matches the ISO-8601 form used by JavaScript's toISOString.
const creationDateLayout = "2006-01-02T15:04:05.000Z"

//go:embed templates/serverless-plugin-about.js
var defaultTemplate string

// DefaultTemplate returns the built-in handler template.
func DefaultTemplate() string {
	return defaultTemplate
}

// Generator renders the about handler source.
type Generator struct {
	fs           afero.Fs
	templatePath string
	now          func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithTemplatePath renders the template at path instead of the built-in one.
func WithTemplatePath(path string) GeneratorOption {
	return func(g *Generator) {
		g.templatePath = path
	}
}

// WithClock sets the clock used for the creation date.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a generator writing through fs.
func NewGenerator(fs afero.Fs, opts ...GeneratorOption) *Generator {
	g := &Generator{
		fs:  fs,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Artifact is a rendered handler source.
type Artifact struct {
	Path    string
	Content []byte
}

// Render substitutes the creation date, the descriptors and the output header into
// the template. Nothing is written.
func (g *Generator) Render(descriptors []FunctionDescriptor, opts Options) (*Artifact, error) {
	tmpl, err := g.loadTemplate()
	if err != nil {
		return nil, err
	}

	if descriptors == nil {
		descriptors = []FunctionDescriptor{}
	}
	components, err := json.Marshal(descriptors)
	if err != nil {
		return nil, fmt.Errorf("serializing components: %w", err)
	}

	header := AbsenceMarker
	if opts.OutputFormat != nil {
		data, err := json.Marshal(opts.OutputFormat)
		if err != nil {
			return nil, fmt.Errorf("serializing output format: %w", err)
		}
		header = string(data)
	}

	t, err := fasttemplate.NewTemplate(tmpl, tokenStart, tokenEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateRead, err)
	}

	content := t.ExecuteString(map[string]any{
		TokenCreationDate: g.now().UTC().Format(creationDateLayout),
		TokenComponents:   string(components),
		TokenOutputHeader: header,
	})

	return &Artifact{Path: opts.ArtifactPath, Content: []byte(content)}, nil
}

// Generate renders the artifact and writes it to opts.ArtifactPath, creating the
// generated folder and overwriting any previous artifact.
func (g *Generator) Generate(descriptors []FunctionDescriptor, opts Options) (*Artifact, error) {
	artifact, err := g.Render(descriptors, opts)
	if err != nil {
		return nil, err
	}

	if err := g.fs.MkdirAll(opts.FolderPath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrArtifactWrite, opts.FolderPath, err)
	}

	if err := afero.WriteFile(g.fs, artifact.Path, artifact.Content, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactWrite, artifact.Path, err)
	}

	return artifact, nil
}

func (g *Generator) loadTemplate() (string, error) {
	if g.templatePath == "" {
		return defaultTemplate, nil
	}

	data, err := afero.ReadFile(g.fs, g.templatePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRead, g.templatePath, err)
	}
	return string(data), nil
}
