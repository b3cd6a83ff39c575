// Package assets resolves image names used by a story to files on disk and
// probes them before playback. A missing or unreadable image is never fatal:
// it is logged, remembered, and the story plays on without it.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tatianab/visual-novel/internal/models"
)

// ErrMissing marks an asset that could not be loaded.
var ErrMissing = errors.New("asset missing")

// Kind is the folder an asset lives in.
type Kind int

const (
	Background Kind = iota
	Character
	Misc
)

// Dir returns the folder name under the assets root.
func (k Kind) Dir() string {
	switch k {
	case Background:
		return "backgrounds"
	case Character:
		return "characters"
	default:
		return "misc"
	}
}

// Ref names one asset.
type Ref struct {
	Kind       Kind
	Name       string
	Expression string // characters only
}

// BackgroundRef, CharacterRef and MiscRef build refs for each folder.
func BackgroundRef(name string) Ref { return Ref{Kind: Background, Name: name} }

func CharacterRef(name, expression string) Ref {
	if expression == "" {
		expression = models.DefaultExpression
	}
	return Ref{Kind: Character, Name: name, Expression: expression}
}

func MiscRef(name string) Ref { return Ref{Kind: Misc, Name: name} }

// RelPath is the path relative to the assets root. Character sprites are
// stored as <lowercase name>_<expression>.png.
func (r Ref) RelPath() string {
	if r.Kind == Character {
		return filepath.Join(r.Kind.Dir(), strings.ToLower(r.Name)+"_"+r.Expression+".png")
	}
	return filepath.Join(r.Kind.Dir(), r.Name)
}

func (r Ref) String() string {
	return filepath.ToSlash(r.RelPath())
}

// Info is what probing an asset found out.
type Info struct {
	Ref    Ref
	Path   string
	Format string
	Width  int
	Height int
	Err    error
}

// OK reports whether the asset loaded.
func (i Info) OK() bool {
	return i.Err == nil
}

// Label is a short human description, e.g. "room.jpg 1280x720".
func (i Info) Label() string {
	if i.Err != nil {
		return i.Ref.Name + " (missing)"
	}
	return fmt.Sprintf("%s %dx%d", i.Ref.Name, i.Width, i.Height)
}

// Refs lists every asset a story references, each once, in story order.
func Refs(s *models.Story) []Ref {
	seen := make(map[Ref]bool)
	var refs []Ref
	add := func(r Ref) {
		if r.Name == "" || seen[r] {
			return
		}
		seen[r] = true
		refs = append(refs, r)
	}

	for _, ch := range s.Chapters {
		for _, sc := range ch.Scenes {
			add(BackgroundRef(sc.Background))
			for _, ev := range sc.Events {
				switch ev.Type {
				case models.EventCharacterDialogue:
					add(CharacterRef(ev.Character, ev.Expression))
				case models.EventDisplayImage:
					add(MiscRef(ev.Image))
				}
			}
		}
	}
	if s.Ending != nil {
		add(MiscRef(s.Ending.Image))
	}
	return refs
}

// Catalog resolves refs under a root directory and caches the result.
type Catalog struct {
	root    string
	mu      sync.RWMutex
	entries map[Ref]Info
	logger  *log.Logger
}

// NewCatalog creates a catalog rooted at dir.
func NewCatalog(dir string, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = log.Default()
	}
	return &Catalog{
		root:    dir,
		entries: make(map[Ref]Info),
		logger:  logger,
	}
}

// Resolve returns the cached probe result for ref, probing it on first use.
func (c *Catalog) Resolve(ref Ref) Info {
	c.mu.RLock()
	info, ok := c.entries[ref]
	c.mu.RUnlock()
	if ok {
		return info
	}

	info = c.probe(ref)
	c.mu.Lock()
	c.entries[ref] = info
	c.mu.Unlock()
	return info
}

// Preload probes refs with at most workers in flight. progress, if set, is
// called after each probe and may be called from several goroutines. Only
// context cancellation is returned as an error.
func (c *Catalog) Preload(ctx context.Context, refs []Ref, workers int, progress func(done, total int)) error {
	if workers < 1 {
		workers = 1
	}
	c.logger.Printf("[assets] loading %d assets...", len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var done atomic.Int64
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c.Resolve(ref)
			n := done.Add(1)
			if progress != nil {
				progress(int(n), len(refs))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("preload assets: %w", err)
	}

	if missing := c.Missing(); len(missing) > 0 {
		c.logger.Printf("[assets] %d of %d assets failed to load", len(missing), len(refs))
	} else {
		c.logger.Printf("[assets] all assets loaded")
	}
	return nil
}

// Missing lists every probed asset that failed to load.
func (c *Catalog) Missing() []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Info
	for _, info := range c.entries {
		if !info.OK() {
			out = append(out, info)
		}
	}
	return out
}

func (c *Catalog) probe(ref Ref) Info {
	info := Info{Ref: ref, Path: filepath.Join(c.root, ref.RelPath())}

	f, err := os.Open(info.Path)
	if err != nil {
		info.Err = fmt.Errorf("%w: %s: %v", ErrMissing, ref, err)
		c.logger.Printf("[assets] failed to load %s: %v", ref, err)
		return info
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		info.Err = fmt.Errorf("%w: %s: %v", ErrMissing, ref, err)
		c.logger.Printf("[assets] failed to decode %s: %v", ref, err)
		return info
	}
	info.Format = format
	info.Width = cfg.Width
	info.Height = cfg.Height
	return info
}
