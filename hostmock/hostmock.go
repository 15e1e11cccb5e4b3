package hostmock

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnexpectedNamespace is returned when the namespace is not as expected.
	ErrUnexpectedNamespace = errors.New("unexpected namespace")

	// ErrUnexpectedCapability is returned when the capability is not as expected.
	ErrUnexpectedCapability = errors.New("unexpected capability")

	// ErrUnexpectedFunction is returned when the function is not as expected.
	ErrUnexpectedFunction = errors.New("unexpected function")

	// ErrOperationFailed is returned when Fail is set without a custom error.
	ErrOperationFailed = errors.New("operation failed")
)

// Call records a single host invocation.
type Call struct {
	Namespace  string
	Capability string
	Function   string
	Payload    []byte
}

// Config represents the configuration for creating a Mock instance.
type Config struct {
	// ExpectedNamespace defines the namespace expected in the host call.
	ExpectedNamespace string

	// ExpectedCapability defines the capability expected in the host call.
	ExpectedCapability string

	// ExpectedFunction defines the function name expected in the host call.
	ExpectedFunction string

	// Error is the error to return if the mock is configured to fail.
	Error error

	// PayloadValidator validates the payload passed to the host call.
	PayloadValidator func([]byte) error

	// Response defines the response to return for the host call.
	Response func() []byte

	// Fail indicates whether the mock should return an error.
	Fail bool
}

// Mock simulates a single host capability function with validation and a scripted response.
type Mock struct {
	cfg Config

	mu    sync.Mutex
	calls []Call
}

// New creates a new instance of the Mock based on the provided Config.
func New(config Config) (*Mock, error) {
	return &Mock{cfg: config}, nil
}

// HostCall simulates a host call, validating inputs and returning a response or error.
func (m *Mock) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	m.record(namespace, capability, function, payload)

	if m.cfg.Fail {
		if m.cfg.Error != nil {
			return nil, m.cfg.Error
		}
		return nil, ErrOperationFailed
	}

	if err := expect(ErrUnexpectedNamespace, "namespace", m.cfg.ExpectedNamespace, namespace); err != nil {
		return nil, err
	}
	if err := expect(ErrUnexpectedCapability, "capability", m.cfg.ExpectedCapability, capability); err != nil {
		return nil, err
	}
	if err := expect(ErrUnexpectedFunction, "function", m.cfg.ExpectedFunction, function); err != nil {
		return nil, err
	}

	if m.cfg.PayloadValidator != nil {
		if err := m.cfg.PayloadValidator(payload); err != nil {
			return nil, err
		}
	}

	if m.cfg.Response != nil {
		return m.cfg.Response(), nil
	}

	return nil, nil
}

// Calls returns a snapshot of every invocation seen so far.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *Mock) record(namespace, capability, function string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{
		Namespace:  namespace,
		Capability: capability,
		Function:   function,
		Payload:    append([]byte(nil), payload...),
	})
}

// HandlerFunc answers one routed host call.
type HandlerFunc func(payload []byte) ([]byte, error)

// Router dispatches host calls to per-function handlers, so a component that
// talks to several capability functions can be exercised end to end.
type Router struct {
	namespace string

	mu     sync.Mutex
	routes map[string]HandlerFunc
	calls  []Call
}

// NewRouter creates a Router that accepts calls for the given namespace.
// An empty namespace accepts any.
func NewRouter(namespace string) *Router {
	return &Router{namespace: namespace, routes: make(map[string]HandlerFunc)}
}

// Handle registers h for capability/function, replacing any earlier handler.
func (r *Router) Handle(capability, function string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[routeKey(capability, function)] = h
}

// HostCall records the call and forwards the payload to the registered handler.
func (r *Router) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{
		Namespace:  namespace,
		Capability: capability,
		Function:   function,
		Payload:    append([]byte(nil), payload...),
	})
	h, ok := r.routes[routeKey(capability, function)]
	r.mu.Unlock()

	if err := expect(ErrUnexpectedNamespace, "namespace", r.namespace, namespace); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no handler for %s/%s", ErrUnexpectedFunction, capability, function)
	}

	return h(payload)
}

// Calls returns a snapshot of every invocation seen so far, in arrival order.
func (r *Router) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

func routeKey(capability, function string) string {
	return capability + "/" + function
}

// expect treats an empty want as a wildcard.
func expect(sentinel error, field, want, got string) error {
	if want == "" || want == got {
		return nil
	}
	return fmt.Errorf("%w: expected %s %s, got %s", sentinel, field, want, got)
}
