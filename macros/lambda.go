package macros

import (
	"fmt"

	"github.com/nukata/hy-in-go/models"
)

// Param is a parameter that may carry a default.
type Param struct {
	Name       *models.Symbol
	Default    models.Model
	HasDefault bool
}

// LambdaList is a parsed parameter list:
//
//	[a b &optional c [d 1] &rest r &kwonly e [f 2] &kwargs kw]
type LambdaList struct {
	Required []*models.Symbol
	Optional []Param
	Rest     *models.Symbol
	KwOnly   []Param
	Kwargs   *models.Symbol
}

// Names returns every parameter name in binding order.
func (l *LambdaList) Names() []*models.Symbol {
	names := append([]*models.Symbol(nil), l.Required...)
	for _, p := range l.Optional {
		names = append(names, p.Name)
	}
	if l.Rest != nil {
		names = append(names, l.Rest)
	}
	for _, p := range l.KwOnly {
		names = append(names, p.Name)
	}
	if l.Kwargs != nil {
		names = append(names, l.Kwargs)
	}
	return names
}

// named reports whether a keyword argument may bind the parameter whose
// mangled name is key.
func (l *LambdaList) named(key string) bool {
	for _, s := range l.Required {
		if s.Mangled() == key {
			return true
		}
	}
	for _, p := range l.Optional {
		if p.Name.Mangled() == key {
			return true
		}
	}
	for _, p := range l.KwOnly {
		if p.Name.Mangled() == key {
			return true
		}
	}
	return false
}

// ParseLambdaList reads a parameter list. Sections must appear in the
// order shown on LambdaList.
func ParseLambdaList(m models.Model) (*LambdaList, error) {
	list, ok := m.(*models.List)
	if !ok {
		return nil, fmt.Errorf("lambda list must be a list, got %s", m.Repr())
	}
	const (
		required = iota
		optional
		rest
		kwonly
		kwargs
		done
	)
	ll := &LambdaList{}
	state := required
	elems := list.Elems()
	for i := 0; i < len(elems); i++ {
		e := elems[i]
		if s, ok := e.(*models.Symbol); ok && len(s.Name) > 1 && s.Name[0] == '&' {
			next := map[string]int{"&optional": optional, "&rest": rest,
				"&kwonly": kwonly, "&kwargs": kwargs}[s.Name]
			if next == 0 {
				return nil, fmt.Errorf("unknown lambda-list keyword %s", s.Name)
			}
			if next <= state {
				return nil, fmt.Errorf("%s is out of order in %s", s.Name, list.Repr())
			}
			state = next
			if state == rest || state == kwargs {
				if i+1 >= len(elems) {
					return nil, fmt.Errorf("%s needs a name", s.Name)
				}
				name, ok := elems[i+1].(*models.Symbol)
				if !ok {
					return nil, fmt.Errorf("%s needs a symbol, got %s", s.Name, elems[i+1].Repr())
				}
				if state == rest {
					ll.Rest = name
				} else {
					ll.Kwargs = name
					state = done
				}
				i++
			}
			continue
		}
		switch state {
		case required:
			s, ok := e.(*models.Symbol)
			if !ok {
				return nil, fmt.Errorf("parameter must be a symbol, got %s", e.Repr())
			}
			ll.Required = append(ll.Required, s)
		case optional, kwonly:
			p, err := parseParam(e)
			if err != nil {
				return nil, err
			}
			if state == optional {
				if !p.HasDefault {
					p.Default, p.HasDefault = models.NewSymbol("None"), true
				}
				ll.Optional = append(ll.Optional, p)
			} else {
				ll.KwOnly = append(ll.KwOnly, p)
			}
		default:
			return nil, fmt.Errorf("unexpected %s after &rest or &kwargs", e.Repr())
		}
	}
	return ll, nil
}

func parseParam(e models.Model) (Param, error) {
	switch x := e.(type) {
	case *models.Symbol:
		return Param{Name: x}, nil
	case *models.List:
		if el := x.Elems(); len(el) == 2 {
			if s, ok := el[0].(*models.Symbol); ok {
				return Param{Name: s, Default: el[1], HasDefault: true}, nil
			}
		}
	}
	return Param{}, fmt.Errorf("parameter must be a symbol or [name default], got %s", e.Repr())
}
