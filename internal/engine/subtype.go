package engine

import "github.com/roach88/logrename/internal/ir"

// SubtypeResolver answers ancestor queries over the host's declared
// supertypes (superclass plus implemented interfaces).
//
// Type names are resolved through the program, so a class renamed earlier
// in the load is still found under either name. Supertypes that are not
// part of the input are compared by name but not expanded. A visited set
// keeps malformed cyclic hierarchies from looping.
type SubtypeResolver struct {
	program ir.Program
}

// NewSubtypeResolver creates a resolver over program.
func NewSubtypeResolver(program ir.Program) *SubtypeResolver {
	return &SubtypeResolver{program: program}
}

// IsSubtypeOf reports whether child is ancestor or transitively declares
// it as a supertype.
func (r *SubtypeResolver) IsSubtypeOf(child, ancestor string) bool {
	child = ir.NormalizeName(child)
	ancestor = ir.NormalizeName(ancestor)
	if child == "" || ancestor == "" {
		return false
	}
	if child == ancestor {
		return true
	}

	target := r.resolve(ancestor)
	visited := make(map[string]bool)
	queue := []string{child}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		cls := r.resolve(name)
		key := name
		if cls != nil {
			key = ir.NormalizeName(cls.RawName())
		}
		if visited[key] {
			continue
		}
		visited[key] = true

		if name == ancestor || (cls != nil && target != nil && cls == target) {
			return true
		}
		if cls == nil {
			continue
		}
		for _, super := range cls.Supertypes() {
			queue = append(queue, ir.NormalizeName(super))
		}
	}
	return false
}

func (r *SubtypeResolver) resolve(name string) ir.Class {
	if r.program == nil {
		return nil
	}
	return r.program.ResolveClass(name)
}
