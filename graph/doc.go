// Package graph implements a graph-based workflow execution engine.
//
// A workflow is a directed graph of processing nodes connected by
// optionally conditional edges. An immutable typed State is threaded
// through the graph; each node returns a Command (traverse, complete,
// suspend, error, fork) directing the Executor's step loop, which enforces
// step and wall-clock budgets, cycle policy and edge conditions.
//
// Basic usage:
//
//	exec, err := graph.NewBuilder[string, string]("greeter").
//		AddNode(graph.NewEntryNode("hello", "say hello",
//			func(ctx context.Context, s graph.State[string]) (*graph.Command[string], error) {
//				return graph.Traverse[string]("done").WithData("hello " + s.Data()), nil
//			})).
//		AddNode(graph.NewNode("done", "finish",
//			func(ctx context.Context, s graph.State[string]) (*graph.Command[string], error) {
//				return graph.Complete[string](s.Data()), nil
//			})).
//		AddEdge("hello", "done").
//		SetOutputExtractor(func(result any, _ graph.State[string]) (string, error) {
//			return result.(string), nil
//		}).
//		Build()
//	if err != nil {
//		// structural validation failed
//	}
//	result := exec.Start(context.Background(), "world")
//
// Suspension returns full ownership of the state to the caller; a later
// Resume re-enters the loop at the recorded node. Persistence of suspended
// states is delegated to the store packages.
package graph
