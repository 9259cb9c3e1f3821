package declarative

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/graphflow/graph"
)

const triageYAML = `
name: ticket-triage
entry: classify
max_steps: 20
max_duration: 30s
cycles:
  detect: true
nodes:
  - id: classify
    type: tagger
    description: tags the payload
    entry: true
    config:
      tag: classified
  - id: finish
    type: finisher
edges:
  - from: classify
    to: finish
    when: 'context["tag"] == "classified"'
`

var tagKey = graph.NewContextKey[string]("tag")

func testRegistry() *Registry[string] {
	reg := NewRegistry[string]()
	reg.Register("tagger", func(def NodeDef) (graph.Node[string], error) {
		tag, _ := def.Config["tag"].(string)
		return graph.NewNode(graph.NodeID(def.ID), def.Description,
			func(_ context.Context, _ graph.State[string]) (*graph.Command[string], error) {
				cmd := graph.Traverse[string]("finish")
				return graph.CommandUpdate(cmd, tagKey, tag), nil
			}), nil
	})
	reg.Register("finisher", func(def NodeDef) (graph.Node[string], error) {
		return graph.NewNode(graph.NodeID(def.ID), def.Description,
			func(_ context.Context, s graph.State[string]) (*graph.Command[string], error) {
				return graph.Complete[string](s.Data()), nil
			}), nil
	})
	return reg
}

func passthroughExtractor(result any, _ graph.State[string]) (string, error) {
	return result.(string), nil
}

func TestParse(t *testing.T) {
	def, err := Parse([]byte(triageYAML))
	require.NoError(t, err)

	assert.Equal(t, "ticket-triage", def.Name)
	assert.Equal(t, "classify", def.Entry)
	assert.Equal(t, 20, def.MaxSteps)
	assert.Equal(t, "30s", def.MaxDuration)
	assert.True(t, def.Cycles.Detect)
	assert.False(t, def.Cycles.Allow)

	require.Len(t, def.Nodes, 2)
	assert.Equal(t, "tagger", def.Nodes[0].Type)
	assert.True(t, def.Nodes[0].Entry)
	assert.Equal(t, "classified", def.Nodes[0].Config["tag"])

	require.Len(t, def.Edges, 1)
	assert.NotEmpty(t, def.Edges[0].When)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("nodes: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_EndToEnd(t *testing.T) {
	b, err := Load[string, string]([]byte(triageYAML), testRegistry())
	require.NoError(t, err)

	exec, err := b.SetOutputExtractor(passthroughExtractor).Build()
	require.NoError(t, err)

	result := exec.Start(context.Background(), "payload")
	require.True(t, result.IsSuccess(), "got %+v", result.Err)
	assert.Equal(t, "payload", result.Output)
}

func TestLoad_ConditionalEdgeGates(t *testing.T) {
	// The tagger writes a different tag, so the CEL-gated edge rejects.
	reg := testRegistry()
	reg.Register("tagger", func(def NodeDef) (graph.Node[string], error) {
		return graph.NewNode(graph.NodeID(def.ID), def.Description,
			func(_ context.Context, _ graph.State[string]) (*graph.Command[string], error) {
				cmd := graph.Traverse[string]("finish")
				return graph.CommandUpdate(cmd, tagKey, "wrong"), nil
			}), nil
	})

	b, err := Load[string, string]([]byte(triageYAML), reg)
	require.NoError(t, err)
	exec, err := b.SetOutputExtractor(passthroughExtractor).Build()
	require.NoError(t, err)

	result := exec.Start(context.Background(), "payload")
	require.True(t, result.IsFailure())
	assert.Equal(t, graph.ErrKindEdgeConditionFailed, result.Err.Kind)
}

func TestLoad_UnknownNodeType(t *testing.T) {
	_, err := Load[string, string]([]byte(`
name: broken
nodes:
  - id: a
    type: does-not-exist
`), testRegistry())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node type")
}

func TestLoad_FactoryIDMismatch(t *testing.T) {
	reg := NewRegistry[string]()
	reg.Register("renegade", func(_ NodeDef) (graph.Node[string], error) {
		return graph.NewNode[string]("other-id", "",
			func(_ context.Context, s graph.State[string]) (*graph.Command[string], error) {
				return graph.Complete[string](s.Data()), nil
			}), nil
	})

	_, err := Load[string, string]([]byte(`
name: mismatched
nodes:
  - id: a
    type: renegade
`), reg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "definition says")
}

func TestLoad_BadCELExpression(t *testing.T) {
	_, err := Load[string, string]([]byte(`
name: bad-cel
nodes:
  - id: a
    type: finisher
edges:
  - from: a
    to: a
    when: 'context['
`), testRegistry())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "a -> a")
}

func TestLoad_BadDuration(t *testing.T) {
	_, err := Load[string, string]([]byte(`
name: bad-duration
max_duration: soon
nodes:
  - id: a
    type: finisher
`), testRegistry())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_duration")
}

func TestAssemble_AppliesBudgetsAndCycles(t *testing.T) {
	def := &Definition{
		Name:   "looper",
		Cycles: CycleDef{Detect: true, Allow: false},
		Nodes:  []NodeDef{{ID: "a", Type: "hopper", Entry: true}},
	}

	reg := NewRegistry[string]()
	reg.Register("hopper", func(d NodeDef) (graph.Node[string], error) {
		return graph.NewNode(graph.NodeID(d.ID), "",
			func(_ context.Context, _ graph.State[string]) (*graph.Command[string], error) {
				return graph.Traverse[string]("a"), nil
			}), nil
	})

	b, err := Assemble[string, string](def, reg)
	require.NoError(t, err)
	exec, err := b.SetOutputExtractor(passthroughExtractor).Build()
	require.NoError(t, err)

	result := exec.Start(context.Background(), "x")
	require.True(t, result.IsFailure())
	assert.Equal(t, graph.ErrKindCycleDetected, result.Err.Kind)
}
