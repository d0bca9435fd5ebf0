// Package continuation captures a unit of work and the state it closes over
// in an artifact that another process, built from the same code, can decode
// and run.
//
// A continuation is any registered type implementing Fn. Its exported fields
// are the captured state. Values held in interface-typed fields keep their
// concrete variant as long as that variant is registered too, in the same
// value or pointer form:
//
//	type Answer struct{ Value int }
//
//	func (a Answer) Run(ctx context.Context) error { ... }
//
//	func init() { continuation.Register("example.Answer", Answer{}) }
package continuation

import (
	"context"
	"encoding/gob"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Fn is a unit of deferred work
type Fn interface {
	Run(ctx context.Context) error
}

// registry is the allow-list of capturable variants. gob keeps its own
// process-wide name table, so there is exactly one registry per process.
type registry struct {
	mu     sync.RWMutex
	byName map[string]reflect.Type
	byBase map[reflect.Type]string
}

var variants = &registry{
	byName: make(map[string]reflect.Type),
	byBase: make(map[reflect.Type]string),
}

// Register adds a variant to the allow-list under a stable name. Register
// continuations in the exact form (value or pointer) they are submitted in.
// Every concrete type stored in an interface-typed field must be registered
// too, again in the exact form it is stored in: a *T held where T was
// registered is rejected, since it would decode as a T.
// Registering the same type twice under the same name is a no-op; reusing a
// name or a type with a different partner panics.
func Register(name string, sample interface{}) {
	if name == "" {
		panic("continuation: Register with empty name")
	}
	if sample == nil {
		panic("continuation: Register with nil sample")
	}
	rt := reflect.TypeOf(sample)
	base := baseType(rt)

	variants.mu.Lock()
	defer variants.mu.Unlock()

	if existing, ok := variants.byName[name]; ok {
		if existing == rt {
			return
		}
		panic(fmt.Sprintf("continuation: name %q already registered for %s", name, existing))
	}
	if existing, ok := variants.byBase[base]; ok {
		panic(fmt.Sprintf("continuation: type %s already registered as %q", rt, existing))
	}

	gob.RegisterName(name, sample)
	variants.byName[name] = rt
	variants.byBase[base] = name
}

// Kinds returns every registered variant name, sorted
func Kinds() []string {
	variants.mu.RLock()
	defer variants.mu.RUnlock()

	names := make([]string, 0, len(variants.byName))
	for name := range variants.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KindOf returns the registered name of a value's type
func KindOf(v interface{}) (string, bool) {
	if v == nil {
		return "", false
	}
	return kindOfType(reflect.TypeOf(v))
}

func kindOfType(rt reflect.Type) (string, bool) {
	variants.mu.RLock()
	defer variants.mu.RUnlock()
	name, ok := variants.byBase[baseType(rt)]
	return name, ok
}

// registeredExactly reports whether rt itself (not just its base) was registered
func registeredExactly(rt reflect.Type) (string, bool) {
	variants.mu.RLock()
	defer variants.mu.RUnlock()
	name, ok := variants.byBase[baseType(rt)]
	if !ok {
		return "", false
	}
	return name, variants.byName[name] == rt
}

func baseType(rt reflect.Type) reflect.Type {
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt
}
