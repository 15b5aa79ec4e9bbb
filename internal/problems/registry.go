package problems

import (
	"fmt"
	"sort"

	"github.com/san-kum/trajopt/internal/ocp"
)

type Registry struct {
	problems map[string]func() *ocp.Problem
}

func NewRegistry() *Registry {
	r := &Registry{problems: make(map[string]func() *ocp.Problem)}

	r.problems["double_integrator"] = NewDoubleIntegrator
	r.problems["pendulum"] = func() *ocp.Problem { return NewPendulum().Problem() }

	return r
}

func (r *Registry) Get(name string) (*ocp.Problem, error) {
	fn, ok := r.problems[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem: %s", name)
	}
	return fn(), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.problems))
	for name := range r.problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
