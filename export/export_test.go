package export_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/swcgen/artifact"
	"github.com/c360studio/swcgen/export"
	"github.com/c360studio/swcgen/graph"
	"github.com/c360studio/swcgen/requirement"
)

const sensorRequirement = "The software component sensor_swc shall send a temperature value to the software component EMS_swc using a Sender-Receiver communication model, with a transmission period of 10 milliseconds."

func sensorProject(t *testing.T) *graph.Project {
	t.Helper()
	p := graph.NewProject("engine",
		graph.WithIDGenerator(graph.SequentialIDs()),
		graph.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	docs := requirement.NewDefaultExtractor().Parse(sensorRequirement)
	_, err := p.Integrate(artifact.NewDefaultSynthesizer().Generate(docs))
	require.NoError(t, err)
	return p
}

func TestExport_JSON(t *testing.T) {
	p := sensorProject(t)

	data, err := export.ExportProject(p, export.FormatJSON)
	require.NoError(t, err)

	var got graph.Snapshot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, p.Snapshot(), got)
}

func TestExport_YAML(t *testing.T) {
	p := sensorProject(t)

	data, err := export.ExportProject(p, export.FormatYAML)
	require.NoError(t, err)

	var got graph.Snapshot
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "engine", got.Name)
	assert.Len(t, got.SWCs, 2)
	assert.Equal(t, p.Counts(), got.Counts())
}

func TestExport_Turtle(t *testing.T) {
	data, err := export.ExportProject(sensorProject(t), export.FormatTurtle)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, "@prefix entity: <"+export.EntityNamespace+"> ."))
	assert.Contains(t, out, "<"+export.EntityNamespace+"swc/1>\n    a swcgen:SoftwareComponent ;\n    swcgen:name \"sensor_swc\"")
	assert.Contains(t, out, "a swcgen:VariableAccess")
	assert.Contains(t, out, "swcgen:period \"10\"^^xsd:integer")
}

func TestExport_NTriples(t *testing.T) {
	p := sensorProject(t)
	data, err := export.ExportProject(p, export.FormatNTriples)
	require.NoError(t, err)

	snap := p.Snapshot()
	rdf := export.NewRDFExporter(snap)
	want := 0
	for _, e := range rdf.Entities() {
		want += 1 + len(e.Triples)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, want)
	assert.Equal(t, snap.Counts().Total(), len(rdf.Entities()))

	for _, line := range lines {
		assert.True(t, strings.HasSuffix(line, " ."), line)
	}
	assert.Contains(t, string(data),
		"<"+export.EntityNamespace+"swc/1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <"+export.Namespace+"SoftwareComponent> .")
}

func TestExport_InvalidGraph(t *testing.T) {
	snap := sensorProject(t).Snapshot()
	snap.SWCs[0].Ports[0].InterfaceRef = "interface:999"

	for _, f := range []export.Format{export.FormatJSON, export.FormatTurtle} {
		_, err := export.Export(snap, f)
		require.ErrorIs(t, err, export.ErrInvalidGraph)
		assert.Contains(t, err.Error(), "interface:999")
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := export.Export(graph.Snapshot{Name: "x"}, export.Format("arxml"))
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestExport_EmptyGraph(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, graph.Snapshot{Name: "empty"}, export.FormatNTriples))
	assert.Empty(t, buf.String())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want export.Format
	}{
		{"json", export.FormatJSON},
		{"YAML", export.FormatYAML},
		{"yml", export.FormatYAML},
		{".ttl", export.FormatTurtle},
		{"turtle", export.FormatTurtle},
		{"nt", export.FormatNTriples},
		{".nt", export.FormatNTriples},
	}
	for _, tt := range tests {
		got, err := export.ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := export.ParseFormat("arxml")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)

	assert.Equal(t, []string{"json", "ntriples", "turtle", "yaml"}, export.Formats())
	info, ok := export.GetFormatInfo(export.FormatTurtle)
	require.True(t, ok)
	assert.Equal(t, ".ttl", info.Extension)
}
