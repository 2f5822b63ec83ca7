// Package bundle creates zip deployment bundles for a service and its individually
// packaged functions.
package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/Financial-Times/serverless-plugin-about/internal/metrics"
	"github.com/Financial-Times/serverless-plugin-about/internal/service"
)

// DefaultDir is the package directory, relative to the service path.
const DefaultDir = ".serverless"

// Bundle describes a written deployment bundle.
type Bundle struct {
	// Name is the service name or the function key.
	Name string `json:"name"`
	// Path is the zip file on disk.
	Path string `json:"path"`
	// Files lists the shipped files, slash-separated and sorted.
	Files []string `json:"files"`
	// Hash is the SHA256 of the zip.
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// Packager writes deployment bundles.
type Packager struct {
	fs      afero.Fs
	dir     string
	buildID string
	metrics *metrics.Build
	bundles []*Bundle
}

// Option configures a Packager.
type Option func(*Packager)

// WithBuildID sets the build id logged with each bundle.
func WithBuildID(id string) Option {
	return func(p *Packager) {
		p.buildID = id
	}
}

// WithMetrics counts written bundles in m.
func WithMetrics(m *metrics.Build) Option {
	return func(p *Packager) {
		p.metrics = m
	}
}

// NewPackager creates a packager writing into dir (relative to the service path).
func NewPackager(fs afero.Fs, dir string, opts ...Option) *Packager {
	if dir == "" {
		dir = DefaultDir
	}
	p := &Packager{
		fs:      fs,
		dir:     filepath.ToSlash(filepath.Clean(dir)),
		buildID: uuid.New().String(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bundles returns the bundles written by the last Package call.
func (p *Packager) Bundles() []*Bundle {
	return p.bundles
}

// Package writes <dir>/<service>.zip and one <dir>/<function>.zip per function that is
// packaged individually.
func (p *Packager) Package(ctx context.Context, svc *service.Service) error {
	p.bundles = nil

	files, err := p.listFiles(svc.Path)
	if err != nil {
		return fmt.Errorf("listing service files: %w", err)
	}

	targets := []struct {
		name string
		pkg  *service.Package
	}{
		{name: svc.Name, pkg: svc.Package},
	}
	for _, fn := range svc.Functions {
		if fn.Package != nil && fn.Package.Individually {
			targets = append(targets, struct {
				name string
				pkg  *service.Package
			}{name: fn.Key, pkg: fn.Package})
		}
	}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		rule, err := NewRule(target.pkg)
		if err != nil {
			return fmt.Errorf("bundle %s: %w", target.name, err)
		}

		shipped := make([]string, 0, len(files))
		for _, f := range files {
			if rule.Ships(f) {
				shipped = append(shipped, f)
			}
		}

		b, err := p.writeBundle(svc.Path, target.name, shipped)
		if err != nil {
			return fmt.Errorf("bundle %s: %w", target.name, err)
		}
		p.bundles = append(p.bundles, b)
		p.metrics.IncBundles()

		if len(shipped) == 0 {
			log.Warn().Str("bundle", target.name).Msg("Bundle is empty")
		}
		log.Info().
			Str("build_id", p.buildID).
			Str("bundle", b.Name).
			Str("path", b.Path).
			Int("files", len(b.Files)).
			Int64("size", b.Size).
			Str("hash", b.Hash).
			Msg("Wrote deployment bundle")
	}

	return nil
}

// listFiles returns every regular file under root, relative and slash-separated,
// excluding the package directory.
func (p *Packager) listFiles(root string) ([]string, error) {
	var files []string

	err := afero.Walk(p.fs, root, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, name)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if rel == p.dir || strings.HasPrefix(rel, p.dir+"/") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode().IsRegular() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func (p *Packager) writeBundle(root, name string, files []string) (b *Bundle, err error) {
	outDir := filepath.Join(root, filepath.FromSlash(p.dir))
	if err := p.fs.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating package directory: %w", err)
	}

	outPath := filepath.Join(outDir, name+".zip")
	out, err := p.fs.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	h := sha256.New()
	counter := &countingWriter{}
	zw := zip.NewWriter(io.MultiWriter(out, h, counter))

	for _, rel := range files {
		if err := p.addFile(zw, root, rel); err != nil {
			return nil, multierr.Append(err, zw.Close())
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finishing %s: %w", outPath, err)
	}

	return &Bundle{
		Name:  name,
		Path:  outPath,
		Files: files,
		Hash:  hex.EncodeToString(h.Sum(nil)),
		Size:  counter.n,
	}, nil
}

func (p *Packager) addFile(zw *zip.Writer, root, rel string) (err error) {
	src, err := p.fs.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("opening %s: %w", rel, err)
	}
	defer func() {
		err = multierr.Append(err, src.Close())
	}()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", rel, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header %s: %w", rel, err)
	}
	header.Name = path.Clean(rel)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("adding %s: %w", rel, err)
	}

	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("copying %s: %w", rel, err)
	}
	return nil
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	c.n += int64(len(b))
	return len(b), nil
}
