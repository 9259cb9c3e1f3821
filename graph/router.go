package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Context keys the router writes its decision metadata under, so that
// downstream nodes and edge conditions can inspect why a path was chosen.
var (
	KeyRouterSelected     = NewContextKey[string]("router.selected")
	KeyRouterConfidence   = NewContextKey[float64]("router.confidence")
	KeyRouterReasoning    = NewContextKey[string]("router.reasoning")
	KeyRouterAlternatives = NewContextKey[[]RouteCandidate]("router.alternatives")
)

// RouteCandidate is one scored route option. Candidates are immutable and
// compare by score.
type RouteCandidate struct {
	// Route is the candidate node.
	Route NodeID `json:"route"`

	// Score is the candidate's confidence, in [0,1].
	Score float64 `json:"score"`
}

// RoutingDecision is the structured outcome of classifying a payload
// against the available routes.
type RoutingDecision struct {
	// Selected is the chosen route.
	Selected NodeID

	// Confidence is the classifier's confidence in Selected, in [0,1].
	Confidence float64

	// Reasoning explains the choice in prose.
	Reasoning string

	// Alternatives are the remaining candidates, best first.
	Alternatives []RouteCandidate

	// FallbackRoutes are routes to prefer when the decision is rejected.
	FallbackRoutes []NodeID

	// Updates are extra context entries to carry with the decision.
	Updates Context

	// Condition optionally guards the traversal the decision produces.
	Condition Condition
}

// NewRoutingDecision builds a decision, rejecting confidences outside [0,1].
func NewRoutingDecision(selected NodeID, confidence float64, reasoning string) (*RoutingDecision, error) {
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("routing confidence %v outside [0,1]", confidence)
	}
	if selected == "" {
		return nil, fmt.Errorf("routing decision requires a selected route")
	}
	return &RoutingDecision{
		Selected:   selected,
		Confidence: confidence,
		Reasoning:  reasoning,
	}, nil
}

// Classifier turns a payload into a routing decision over the available
// routes. Implementations may consult the workflow context but must not
// mutate engine state.
type Classifier[T any] interface {
	Classify(ctx context.Context, payload T, routes []NodeID, wctx Context) (*RoutingDecision, error)
}

// ClassifierFunc adapts a function into a Classifier.
type ClassifierFunc[T any] func(ctx context.Context, payload T, routes []NodeID, wctx Context) (*RoutingDecision, error)

// Classify implements Classifier.
func (f ClassifierFunc[T]) Classify(ctx context.Context, payload T, routes []NodeID, wctx Context) (*RoutingDecision, error) {
	return f(ctx, payload, routes, wctx)
}

// RouterFailurePolicy selects what the router does when it cannot produce
// an acceptable decision and no fallback route is available.
type RouterFailurePolicy int

const (
	// RouterFailError emits an ordinary Error command with no fallback.
	RouterFailError RouterFailurePolicy = iota

	// RouterFailSuspend emits a Suspend command requesting manual review.
	RouterFailSuspend
)

// RouterNode classifies the payload and converts the decision into a
// Traverse command, gated by a confidence threshold. Classification
// failure and low confidence are handled identically: fallback route if
// one is configured, otherwise the failure policy. A routing problem never
// surfaces as a hard engine failure unless no fallback and no suspension
// policy exist.
type RouterNode[T any] struct {
	id            NodeID
	description   string
	entryPoint    bool
	classifier    Classifier[T]
	routes        []NodeID
	minConfidence float64
	fallback      NodeID
	onFailure     RouterFailurePolicy
}

var _ Node[any] = (*RouterNode[any])(nil)

// RouterOption configures a RouterNode.
type RouterOption[T any] func(*RouterNode[T])

// WithMinConfidence sets the minimum confidence a decision must reach.
func WithMinConfidence[T any](threshold float64) RouterOption[T] {
	return func(r *RouterNode[T]) { r.minConfidence = threshold }
}

// WithFallbackRoute sets the route taken when classification fails or the
// confidence is too low.
func WithFallbackRoute[T any](fallback NodeID) RouterOption[T] {
	return func(r *RouterNode[T]) { r.fallback = fallback }
}

// WithFailurePolicy sets what happens when no fallback route applies.
func WithFailurePolicy[T any](policy RouterFailurePolicy) RouterOption[T] {
	return func(r *RouterNode[T]) { r.onFailure = policy }
}

// WithRouterEntryPoint marks the router as an entry point.
func WithRouterEntryPoint[T any]() RouterOption[T] {
	return func(r *RouterNode[T]) { r.entryPoint = true }
}

// NewRouterNode creates a content-routing node over the given routes.
func NewRouterNode[T any](id NodeID, description string, classifier Classifier[T], routes []NodeID, opts ...RouterOption[T]) *RouterNode[T] {
	r := &RouterNode[T]{
		id:            id,
		description:   description,
		classifier:    classifier,
		routes:        routes,
		minConfidence: 0.5,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID returns the node identifier.
func (r *RouterNode[T]) ID() NodeID { return r.id }

// Description returns the node description.
func (r *RouterNode[T]) Description() string { return r.description }

// EntryPoint reports whether the router is an entry point.
func (r *RouterNode[T]) EntryPoint() bool { return r.entryPoint }

// Routes returns the routes the router classifies against.
func (r *RouterNode[T]) Routes() []NodeID {
	out := make([]NodeID, len(r.routes))
	copy(out, r.routes)
	return out
}

// GuardCondition returns an edge condition requiring the confidence the
// router stored in context to reach its threshold. Placing it on the
// router's outgoing edges protects against stale context when a suspended
// execution replays the traversal.
func (r *RouterNode[T]) GuardCondition() Condition {
	return ContextAtLeast(KeyRouterConfidence, r.minConfidence)
}

// AnalyzeContent classifies the payload against the available routes and
// validates the resulting decision.
func (r *RouterNode[T]) AnalyzeContent(ctx context.Context, payload T, wctx Context) (*RoutingDecision, error) {
	if len(r.routes) == 0 {
		return nil, fmt.Errorf("router %s has no available routes", r.id)
	}
	if r.classifier == nil {
		return nil, fmt.Errorf("router %s has no classifier", r.id)
	}
	decision, err := r.classifier.Classify(ctx, payload, r.Routes(), wctx)
	if err != nil {
		return nil, err
	}
	if decision == nil {
		return nil, fmt.Errorf("router %s classifier returned no decision", r.id)
	}
	if decision.Confidence < 0 || decision.Confidence > 1 {
		return nil, fmt.Errorf("router %s decision confidence %v outside [0,1]", r.id, decision.Confidence)
	}
	if decision.Selected == "" {
		return nil, fmt.Errorf("router %s decision selected no route", r.id)
	}
	return decision, nil
}

// Run classifies the state's payload and emits the navigation command.
func (r *RouterNode[T]) Run(ctx context.Context, state State[T]) (*Command[T], error) {
	decision, err := r.AnalyzeContent(ctx, state.Data(), state.Context())
	if err != nil {
		return r.reject(nil, err), nil
	}
	if decision.Confidence < r.minConfidence {
		return r.reject(decision, fmt.Errorf(
			"confidence %.2f below threshold %.2f", decision.Confidence, r.minConfidence)), nil
	}

	cmd := Traverse[T](decision.Selected).WithUpdates(r.decisionContext(decision))
	return cmd, nil
}

// decisionContext builds the router-scoped context entries for a decision.
func (r *RouterNode[T]) decisionContext(decision *RoutingDecision) Context {
	c := decision.Updates
	c = With(c, KeyRouterSelected, string(decision.Selected))
	c = With(c, KeyRouterConfidence, decision.Confidence)
	c = With(c, KeyRouterReasoning, decision.Reasoning)
	if len(decision.Alternatives) > 0 {
		c = With(c, KeyRouterAlternatives, decision.Alternatives)
	}
	return c
}

// reject produces the failure-handling command for an unusable decision.
func (r *RouterNode[T]) reject(decision *RoutingDecision, cause error) *Command[T] {
	fallback := r.fallback
	if decision != nil && len(decision.FallbackRoutes) > 0 {
		fallback = decision.FallbackRoutes[0]
	}
	if fallback != "" {
		cmd := Traverse[T](fallback)
		if decision != nil {
			cmd = cmd.WithUpdates(r.decisionContext(decision))
		}
		return cmd
	}
	if r.onFailure == RouterFailSuspend {
		return Suspend[T]("", fmt.Sprintf("manual review required at router %s: %v", r.id, cause))
	}
	return Fail[T](&WorkflowError{
		Kind:    ErrKindRoutingFailed,
		Node:    r.id,
		Message: "content could not be routed",
		Err:     cause,
	})
}

// KeywordClassifier scores routes by keyword hits in a textual rendering
// of the payload. It is deterministic and dependency-free, which makes it
// the reference classifier for tests and simple workflows; model-backed
// classifiers implement the same interface.
type KeywordClassifier[T any] struct {
	// Text renders the payload for matching. Required.
	Text func(payload T) string

	// Keywords maps a route to the keywords that vote for it.
	Keywords map[NodeID][]string
}

var _ Classifier[string] = (*KeywordClassifier[string])(nil)

// Classify implements Classifier by keyword counting. The score of a route
// is the fraction of its keywords present in the text; the best-scoring
// available route wins.
func (k *KeywordClassifier[T]) Classify(_ context.Context, payload T, routes []NodeID, _ Context) (*RoutingDecision, error) {
	if k.Text == nil {
		return nil, fmt.Errorf("keyword classifier has no text function")
	}
	text := strings.ToLower(k.Text(payload))

	candidates := make([]RouteCandidate, 0, len(routes))
	for _, route := range routes {
		keywords := k.Keywords[route]
		if len(keywords) == 0 {
			candidates = append(candidates, RouteCandidate{Route: route, Score: 0})
			continue
		}
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				hits++
			}
		}
		candidates = append(candidates, RouteCandidate{
			Route: route,
			Score: float64(hits) / float64(len(keywords)),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	best := candidates[0]
	reasoning := fmt.Sprintf("route %q scored %.2f by keyword match", best.Route, best.Score)
	return &RoutingDecision{
		Selected:     best.Route,
		Confidence:   best.Score,
		Reasoning:    reasoning,
		Alternatives: candidates[1:],
	}, nil
}
