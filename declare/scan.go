package declare

import (
	"github.com/kbukum/scopekit/errors"
	"github.com/kbukum/scopekit/lifecycle"
	"github.com/kbukum/scopekit/logger"
)

// Scan returns the declarations of kind owned by t and its ancestors, root
// ancestor first and then in declaration order.
//
// KindShared scans are type-bound and take no instance. KindPerUnit scans read every
// declaration from instance, which must be the live test instance. Every
// declaration of the hierarchy is checked against lifecycle.Startable, not only
// those of kind, so a misdeclared resource is reported on the first scan.
func Scan(kind Kind, t *Type, instance any) ([]Declaration, error) {
	if t == nil {
		return nil, errors.Configuration("cannot scan %s declarations without a type", kind)
	}
	switch kind {
	case KindShared:
		if instance != nil {
			return nil, errors.Configuration("shared declarations of %s are type-bound; scan takes no instance", t.name)
		}
	case KindPerUnit:
		if lifecycle.IsNil(instance) {
			return nil, errors.Configuration("per-unit declarations of %s require a live test instance", t.name)
		}
	default:
		return nil, errors.Configuration("unknown declaration kind %s", kind)
	}

	chain, err := hierarchy(t)
	if err != nil {
		return nil, err
	}

	var (
		out  []Declaration
		seen = make(map[string]struct{})
	)
	for _, owner := range chain {
		for _, f := range owner.snapshot() {
			if f.name == "" {
				return nil, errors.Configuration("type %s has a declaration without a name", owner.name)
			}
			key := owner.name + "." + f.name
			if _, dup := seen[key]; dup {
				return nil, errors.Configuration("declaration %s is registered twice", key)
			}
			seen[key] = struct{}{}

			if !lifecycle.ImplementsStartable(f.declared) {
				return nil, errors.NotStartable(f.name, f.declared.String()).WithDetail("owner", owner.name)
			}
			if f.kind != kind {
				continue
			}

			handle, err := read(f, instance)
			if err != nil {
				return nil, err
			}
			out = append(out, Declaration{
				Kind:   kind,
				Key:    key,
				Name:   f.name,
				Owner:  owner.name,
				Handle: handle,
			})
		}
	}

	logger.Debug("declarations scanned", logger.Fields(
		logger.FieldScope, kind.String(),
		"type", t.name,
		logger.FieldCount, len(out),
	))
	return out, nil
}

func read(f field, instance any) (handle lifecycle.Startable, err error) {
	if f.read == nil {
		return nil, errors.Configuration("declaration %s has no accessor", f.name)
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Configuration("can not access resource declared as %s", f.name).WithCause(errors.PanicError(r))
		}
	}()

	v, err := f.read(instance)
	if err != nil {
		return nil, errors.Configuration("can not access resource declared as %s", f.name).WithCause(err)
	}
	if lifecycle.IsNil(v) {
		return nil, errors.NotInitialized(f.name)
	}
	s, ok := v.(lifecycle.Startable)
	if !ok {
		return nil, errors.NotStartable(f.name, f.declared.String())
	}
	return s, nil
}

// hierarchy returns t's ancestors root first, ending with t.
func hierarchy(t *Type) ([]*Type, error) {
	var chain []*Type
	visited := make(map[*Type]struct{})
	for cur := t; cur != nil; cur = cur.Parent() {
		if _, ok := visited[cur]; ok {
			return nil, errors.Configuration("type hierarchy of %s contains a cycle at %s", t.name, cur.name)
		}
		visited[cur] = struct{}{}
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
