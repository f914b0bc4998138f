package assets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
	"github.com/stretchr/testify/require"
)

// lookupMap resolves dependencies by "type/name".
type lookupMap map[string]resources.Resource

func (l lookupMap) Resource(typeName, name, _ string) resources.Resource {
	return l[strings.ToLower(typeName)+"/"+name]
}

func (l lookupMap) add(r resources.Resource) {
	l[r.TypeName()+"/"+r.Name()] = r
}

// manualJobs keeps submitted jobs until the test runs them.
type manualJobs struct {
	tasks []core.JobTask
}

func (m *manualJobs) Submit(job core.JobTask) {
	m.tasks = append(m.tasks, job)
}

func (m *manualJobs) runAll() {
	for _, j := range m.tasks {
		if err := j.OnStart(); err != nil {
			if j.OnFailure != nil {
				j.OnFailure(err)
			}
			continue
		}
		if j.OnComplete != nil {
			j.OnComplete()
		}
	}
	m.tasks = nil
}

func newTestEnv(t *testing.T, dir string) (*resources.Env, lookupMap) {
	t.Helper()
	fsys, err := NewFileSystem(dir)
	require.NoError(t, err)
	lookup := lookupMap{}
	return &resources.Env{
		Lookup:    lookup,
		Files:     fsys,
		Telemetry: core.NewNopTelemetry(),
	}, lookup
}

func declare(t *testing.T, env *resources.Env, fn resources.CreateFunc, typeName, name, dir string, attrs map[string]string, children ...*resources.Node) resources.Resource {
	t.Helper()
	node := resources.NewNode(typeName)
	node.Source = "test.xml:1"
	for k, v := range attrs {
		node.Attrs[k] = v
	}
	node.Children = children
	r := fn(resources.ID{Type: typeName, Name: name, Group: "test"}, env)
	require.NoError(t, r.Create(dir, node))
	return r
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}
