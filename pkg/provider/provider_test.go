package provider

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/crazy-max/bundlefs/pkg/archive"
	"github.com/crazy-max/bundlefs/pkg/cache"
	"github.com/crazy-max/bundlefs/pkg/mapping"
	"github.com/crazy-max/bundlefs/pkg/resource"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newSource() *archive.FS {
	return archive.NewFS("bundle", fstest.MapFS{
		"SLING-INF/libs/foo/test.txt":      {Data: []byte("Hello Text")},
		"SLING-INF/libs/foo/test.txt.json": {Data: []byte(`{"test":"foo"}`)},
		"SLING-INF/libs/foo/sub/x.txt":     {Data: []byte("x")},
		"apps/bar/index.html":              {Data: []byte("<html/>")},
	}, epoch)
}

type fakeRegistration struct {
	unregistered int
}

func (r *fakeRegistration) Unregister() {
	r.unregistered++
}

type fakeRegistrar struct {
	roots []string
	regs  []*fakeRegistration
	fail  string
}

func (r *fakeRegistrar) Register(root string, _ *Provider) (Registration, error) {
	if root == r.fail {
		return nil, errors.New("refused")
	}
	reg := &fakeRegistration{}
	r.roots = append(r.roots, root)
	r.regs = append(r.regs, reg)
	return reg, nil
}

func TestResolve(t *testing.T) {
	p, err := New(cache.New(newSource()),
		mapping.MustNew("/libs/foo", "/SLING-INF/libs/foo", "json"),
		mapping.MustNew("/apps/bar", "", ""),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"/libs/foo", "/apps/bar"}, p.Roots())

	res, err := p.Resolve("/libs/foo/test.txt")
	require.NoError(t, err)
	assert.Equal(t, resource.KindFile, res.Kind())
	test, _ := res.Properties().String("test")
	assert.Equal(t, "foo", test)

	res, err = p.Resolve("/libs/foo")
	require.NoError(t, err)
	assert.Equal(t, resource.KindFolder, res.Kind())

	res, err = p.Resolve("/apps/bar/index.html")
	require.NoError(t, err)
	assert.Equal(t, "/apps/bar/index.html", res.ArchivePath())

	for _, path := range []string{"/libs/foo/missing", "/libs/other", "/libs/foobar", "/"} {
		_, err = p.Resolve(path)
		assert.True(t, errors.Is(err, ErrNotFound), path)
	}
	_, err = p.Resolve("/libs/other")
	assert.True(t, errors.Is(err, mapping.ErrNotMapped))
}

func TestResolveCacheHits(t *testing.T) {
	c := cache.New(newSource())
	p, err := New(c, mapping.MustNew("/libs/foo", "/SLING-INF/libs/foo", ""))
	require.NoError(t, err)

	_, err = p.Resolve("/libs/foo/test.txt")
	require.NoError(t, err)
	misses := c.Stats().Misses

	_, err = p.Resolve("/libs/foo/test.txt")
	require.NoError(t, err)
	assert.Equal(t, misses, c.Stats().Misses)
	assert.Equal(t, uint64(1), c.Stats().Hits)
}

func TestNewDuplicateRoot(t *testing.T) {
	_, err := New(cache.New(newSource()),
		mapping.MustNew("/libs/foo", "", ""),
		mapping.MustNew("/libs/foo", "/SLING-INF/libs/foo", ""),
	)
	var cerr *mapping.ConfigError
	assert.True(t, errors.As(err, &cerr))
	assert.True(t, errors.Is(err, mapping.ErrDuplicateRoot))

	_, err = New(nil)
	assert.True(t, errors.Is(err, ErrIllegalState))
}

func TestStartWithoutRegistrationContext(t *testing.T) {
	p, err := New(cache.New(newSource()), mapping.MustNew("/libs/foo", "", ""))
	require.NoError(t, err)

	for _, r := range []Registrar{nil, (*Registry)(nil)} {
		err = p.Start(r)
		assert.True(t, errors.Is(err, ErrIllegalState))
		assert.False(t, p.Started())
	}
}

func TestStartStop(t *testing.T) {
	p, err := New(cache.New(newSource()),
		mapping.MustNew("/libs/foo", "", ""),
		mapping.MustNew("/apps/bar", "", ""),
	)
	require.NoError(t, err)

	r := &fakeRegistrar{}
	require.NoError(t, p.Start(r))
	assert.True(t, p.Started())
	assert.Equal(t, []string{"/libs/foo", "/apps/bar"}, r.roots)

	// starting again does no additional work
	require.NoError(t, p.Start(r))
	assert.Len(t, r.roots, 2)

	p.Stop()
	p.Stop()
	assert.False(t, p.Started())
	for _, reg := range r.regs {
		assert.Equal(t, 1, reg.unregistered)
	}
}

func TestStartPartialFailure(t *testing.T) {
	p, err := New(cache.New(newSource()),
		mapping.MustNew("/libs/foo", "", ""),
		mapping.MustNew("/apps/bar", "", ""),
	)
	require.NoError(t, err)

	r := &fakeRegistrar{fail: "/apps/bar"}
	assert.Error(t, p.Start(r))
	assert.False(t, p.Started())
	require.Len(t, r.regs, 1)
	assert.Equal(t, 1, r.regs[0].unregistered)
}
