// Graphflow - a graph-based workflow execution engine for Go
//
// Graphflow runs computations expressed as directed graphs of processing
// nodes connected by conditional edges. An immutable typed state is
// threaded through the graph until a node returns a terminal command:
// completion, suspension or failure.
//
// Packages:
//
//   - graph: the execution engine — workflow model, immutable state and
//     context, command protocol, executor, validator, content router,
//     monitor, CEL edge conditions, Mermaid/DOT export.
//   - declarative: YAML workflow definitions wired to registered node
//     types.
//   - store: persistence of suspended executions, with memory, file,
//     sqlite, redis and postgres backends.
//   - log: leveled logging with a kataras/golog adapter.
//
// Install:
//
//	go get github.com/smallnest/graphflow
package graphflow
