package compiler

import (
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/swcgen/artifact"
	"github.com/c360studio/swcgen/graph"
	"github.com/c360studio/swcgen/metrics"
	"github.com/c360studio/swcgen/source"
)

const sensorRequirement = "The software component sensor_swc shall send a temperature value to the software component EMS_swc using a Sender-Receiver communication model, with a transmission period of 10 milliseconds."

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCompiler(t *testing.T, cacheSize int) (*Compiler, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewNop()
	c, err := New(Config{CacheSize: cacheSize}, WithMetrics(m), WithLogger(quietLogger()))
	require.NoError(t, err)
	return c, m
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{CacheSize: -1}.Validate())

	_, err := New(Config{CacheSize: -1})
	assert.Error(t, err)
}

func TestCompile(t *testing.T) {
	c, m := newTestCompiler(t, DefaultCacheSize)

	res := c.Compile("reqs.txt", sensorRequirement)
	require.Len(t, res.Requirements, 1)
	assert.Equal(t, "reqs.txt", res.Requirements[0].Source)
	assert.False(t, res.Cached)
	assert.Equal(t, 2, res.Artifacts.Counts()[artifact.KindSWC])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequirementsExtracted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ArtifactsSynthesized.WithLabelValues("swc")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
}

func TestCompile_Cache(t *testing.T) {
	c, m := newTestCompiler(t, DefaultCacheSize)

	first := c.Compile("reqs.txt", sensorRequirement)
	second := c.Compile("reqs.txt", sensorRequirement)

	assert.True(t, second.Cached)
	assert.Same(t, first.Artifacts, second.Artifacts)
	assert.False(t, first.Cached, "cache hit must not mutate the stored result")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequirementsExtracted))

	other := c.Compile("other.txt", sensorRequirement)
	assert.False(t, other.Cached)
	assert.Equal(t, "other.txt", other.Requirements[0].Source)

	c.Purge()
	assert.False(t, c.Compile("reqs.txt", sensorRequirement).Cached)
}

func TestCompile_CacheDisabled(t *testing.T) {
	c, m := newTestCompiler(t, 0)

	c.Compile("reqs.txt", sensorRequirement)
	res := c.Compile("reqs.txt", sensorRequirement)

	assert.False(t, res.Cached)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequirementsExtracted))
}

func TestCompileInto(t *testing.T) {
	c, m := newTestCompiler(t, DefaultCacheSize)
	p := graph.NewProject("engine", graph.WithLogger(quietLogger()))

	report, err := c.CompileInto(p, "reqs.txt", sensorRequirement)
	require.NoError(t, err)
	assert.True(t, report.Validation.Valid, report.Validation.Errors)
	assert.Equal(t, 2, report.Added[artifact.KindSWC])
	assert.Equal(t, 2, report.Added[artifact.KindPort])
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EntitiesIntegrated.WithLabelValues("swc")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ValidationErrors))

	again, err := c.CompileInto(p, "reqs.txt", sensorRequirement)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Zero(t, again.Added.Total())
	assert.Equal(t, 2, p.Counts()[artifact.KindSWC])
}

func TestCompileInto_SharedComponent(t *testing.T) {
	c, _ := newTestCompiler(t, DefaultCacheSize)
	p := graph.NewProject("engine", graph.WithLogger(quietLogger()))

	_, err := c.CompileInto(p, "a.txt", sensorRequirement)
	require.NoError(t, err)
	report, err := c.CompileInto(p, "b.txt",
		"The software component sensor_swc shall send a pressure value to the software component Brake_swc.")
	require.NoError(t, err)
	assert.True(t, report.Validation.Valid, report.Validation.Errors)

	snap := p.Snapshot()
	portIface := make(map[string]string)
	for _, swc := range snap.SWCs {
		for _, port := range swc.Ports {
			portIface[port.ID] = port.InterfaceRef
		}
	}
	for _, conn := range snap.Connections {
		assert.Equal(t, portIface[conn.SourcePortID], portIface[conn.TargetPortID], conn.Name)
	}

	sensor, ok := p.SWCByName("sensor_swc")
	require.True(t, ok)
	provided := make(map[string]int)
	for _, port := range sensor.Ports {
		if port.Direction == artifact.PortProvided {
			provided[port.InterfaceRef]++
		}
	}
	assert.Len(t, provided, 2)
	for iface, n := range provided {
		assert.Equal(t, 1, n, iface)
	}
}

func TestCompileDocumentInto(t *testing.T) {
	c, _ := newTestCompiler(t, DefaultCacheSize)
	p := graph.NewProject("engine", graph.WithLogger(quietLogger()))

	doc, err := source.NewMarkdownDecoder().Decode("reqs.md",
		[]byte("---\nsource: PT-REQ\n---\n# Engine\n- "+sensorRequirement))
	require.NoError(t, err)

	report, err := c.CompileDocumentInto(p, doc)
	require.NoError(t, err)
	require.Len(t, report.Requirements, 1)
	assert.Equal(t, "PT-REQ", report.Requirements[0].Source)

	_, ok := p.SWCByName("sensor_swc")
	assert.True(t, ok)
}

func TestCompileInto_EmptyText(t *testing.T) {
	c, _ := newTestCompiler(t, DefaultCacheSize)
	p := graph.NewProject("empty", graph.WithLogger(quietLogger()))

	report, err := c.CompileInto(p, "blank.txt", "\n\n")
	require.NoError(t, err)
	assert.Empty(t, report.Requirements)
	assert.True(t, report.Artifacts.IsEmpty())
	assert.Zero(t, report.Added.Total())
	assert.True(t, report.Validation.Valid)
}
