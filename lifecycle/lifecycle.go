package lifecycle

import (
	"context"
	"reflect"
)

// Startable is the capability every declared resource must provide.
// Start and Stop are each called at most once per adapter.
type Startable interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// TestAware is optionally implemented by resources that want to observe
// individual test executions.
type TestAware interface {
	BeforeTest(ctx context.Context, desc Description) error
	AfterTest(ctx context.Context, desc Description, outcome Outcome) error
}

var (
	startableType = reflect.TypeFor[Startable]()
	testAwareType = reflect.TypeFor[TestAware]()
)

// StartableType returns the reflect.Type of the Startable interface.
func StartableType() reflect.Type { return startableType }

// ImplementsStartable reports whether values of t satisfy Startable.
func ImplementsStartable(t reflect.Type) bool {
	return t != nil && t.Implements(startableType)
}

// ImplementsTestAware reports whether values of t satisfy TestAware.
func ImplementsTestAware(t reflect.Type) bool {
	return t != nil && t.Implements(testAwareType)
}

// IsNil reports whether v is nil, including typed nil pointers, maps,
// slices, channels and funcs stored in an interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
