// Package demo holds the continuations shipped by the clambda CLI and
// understood by the lambda-entrypoint binary.
package demo

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/psantana5/clusterlambda/pkg/continuation"
)

// Out receives continuation output
var Out io.Writer = os.Stdout

func init() {
	continuation.Register("demo.Answer", Answer{})
	continuation.Register("demo.Sum", Sum{})
	continuation.Register("demo.Greet", Greet{})
	continuation.Register("demo.English", English{})
	continuation.Register("demo.Spanish", Spanish{})
}

// Answer prints a fixed value
type Answer struct {
	Value int
}

func (a Answer) Run(ctx context.Context) error {
	_, err := fmt.Fprintln(Out, a.Value)
	return err
}

// Sum prints the sum of its values
type Sum struct {
	Values []int
}

func (s Sum) Run(ctx context.Context) error {
	total := 0
	for _, v := range s.Values {
		total += v
	}
	_, err := fmt.Fprintln(Out, total)
	return err
}

// Greeter formats a greeting. Concrete greeters must be registered so they
// survive packaging.
type Greeter interface {
	Greeting(name string) string
}

type English struct {
	Punctuation string
}

func (e English) Greeting(name string) string {
	return "Hello, " + name + e.Punctuation
}

type Spanish struct {
	Formal bool
}

func (s Spanish) Greeting(name string) string {
	if s.Formal {
		return "Buenos días, " + name
	}
	return "Hola, " + name
}

// Greet prints a greeting chosen by its Greeter
type Greet struct {
	Name    string
	Greeter Greeter
}

func (g Greet) Run(ctx context.Context) error {
	if g.Greeter == nil {
		return fmt.Errorf("greet %q: no greeter", g.Name)
	}
	_, err := fmt.Fprintln(Out, g.Greeter.Greeting(g.Name))
	return err
}
