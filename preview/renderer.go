package preview

import (
	"image"

	"github.com/google/uuid"

	"github.com/fontogether/fontogether/internal/cache"
	"github.com/fontogether/fontogether/outline"
)

type key struct {
	glyph       uuid.UUID
	fingerprint uint64
	size        int
}

// Renderer renders thumbnails through an LRU cache. A glyph is re-rendered
// whenever its outline or advance width changes. Thumbnails of glyphs with
// components are not refreshed when a base glyph changes; call Invalidate
// for the composite.
type Renderer struct {
	opts  Options
	cache *cache.Cache[key, *image.Alpha]
}

// NewRenderer returns a renderer keeping at most entries thumbnails.
func NewRenderer(opts Options, entries int) *Renderer {
	if entries <= 0 {
		entries = DefaultCacheSize
	}
	return &Renderer{
		opts:  opts.withDefaults(),
		cache: cache.New[key, *image.Alpha](entries),
	}
}

// Thumbnail returns the cached thumbnail of g, rendering it on a miss.
// The returned image is shared and must not be modified.
func (r *Renderer) Thumbnail(g *outline.Glyph) (*image.Alpha, error) {
	k := key{glyph: g.UUID, fingerprint: Fingerprint(g), size: r.opts.Size}
	if img, ok := r.cache.Get(k); ok {
		return img, nil
	}
	img, err := Render(g, r.opts)
	if err != nil {
		return nil, err
	}
	// Older versions of the same glyph are unreachable now.
	r.Invalidate(g.UUID)
	r.cache.Add(k, img)
	return img, nil
}

// Invalidate drops every cached thumbnail of the glyph.
func (r *Renderer) Invalidate(id uuid.UUID) {
	r.cache.RemoveFunc(func(k key) bool { return k.glyph == id })
}

// Stats reports cache statistics.
func (r *Renderer) Stats() cache.Stats {
	return r.cache.Stats()
}
