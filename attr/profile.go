package attr

import (
	"fmt"
)

// Profile is the ordered, immutable set of attributes one hardware family exposes.
type Profile struct {
	name  string
	order []string
	attrs map[string]Attribute
}

// NewProfile builds a profile. Attribute names must be unique.
func NewProfile(name string, attrs ...Attribute) (*Profile, error) {
	p := &Profile{name: name, attrs: make(map[string]Attribute, len(attrs))}

	for _, a := range attrs {
		if a == nil || a.Name() == "" {
			return nil, fmt.Errorf("%w: profile %s", ErrEmptyName, name)
		}
		if _, ok := p.attrs[a.Name()]; ok {
			return nil, fmt.Errorf("%w: %s in profile %s", ErrDuplicateName, a.Name(), name)
		}
		p.order = append(p.order, a.Name())
		p.attrs[a.Name()] = a
	}

	return p, nil
}

// MustProfile is like NewProfile but panics on error.
func MustProfile(name string, attrs ...Attribute) *Profile {
	p, err := NewProfile(name, attrs...)
	if err != nil {
		panic(err)
	}

	return p
}

// Extend derives a new profile from p. Attributes replace those of p with the
// same name in place; new names are appended. p is left untouched.
func (p *Profile) Extend(name string, attrs ...Attribute) (*Profile, error) {
	added, err := NewProfile(name, attrs...)
	if err != nil {
		return nil, err
	}

	out := &Profile{name: name, attrs: make(map[string]Attribute, len(p.attrs)+len(attrs))}
	for _, n := range p.order {
		out.order = append(out.order, n)
		out.attrs[n] = p.attrs[n]
	}
	for _, n := range added.order {
		if _, ok := out.attrs[n]; !ok {
			out.order = append(out.order, n)
		}
		out.attrs[n] = added.attrs[n]
	}

	return out, nil
}

// Name returns the profile name.
func (p *Profile) Name() string { return p.name }

// Len returns the number of attributes.
func (p *Profile) Len() int { return len(p.order) }

// Lookup returns the attribute called name.
func (p *Profile) Lookup(name string) (Attribute, bool) {
	a, ok := p.attrs[name]
	return a, ok
}

// Names returns the attribute names in declaration order.
func (p *Profile) Names() []string {
	return append([]string(nil), p.order...)
}

// Attributes returns the attributes in declaration order.
func (p *Profile) Attributes() []Attribute {
	out := make([]Attribute, 0, len(p.order))
	for _, n := range p.order {
		out = append(out, p.attrs[n])
	}

	return out
}

// Readable returns the attributes having a read command, in declaration order.
func (p *Profile) Readable() []Attribute {
	out := make([]Attribute, 0, len(p.order))
	for _, n := range p.order {
		if a := p.attrs[n]; a.Kind() != WriteOnly {
			out = append(out, a)
		}
	}

	return out
}
