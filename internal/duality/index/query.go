package index

import (
	"go/ast"

	"github.com/martianoff/exprdual/internal/duality/diag"
	"github.com/martianoff/exprdual/internal/duality/shape"
)

// IsInterface reports whether name is a known interface.
func (ix *Index) IsInterface(name string) bool { _, ok := ix.Interfaces[name]; return ok }

// IsDatatype reports whether name is a known datatype.
func (ix *Index) IsDatatype(name string) bool { _, ok := ix.Datatypes[name]; return ok }

// IsGenerator reports whether name is a known generator of some interface.
func (ix *Index) IsGenerator(name string) bool { _, ok := ix.generatorOf[name]; return ok }

// IsVariant reports whether name is a variant of some datatype.
func (ix *Index) IsVariant(name string) bool {
	for _, dt := range ix.Datatypes {
		if _, ok := dt.Variant(name); ok {
			return true
		}
	}
	return false
}

// IsConsumer reports whether name is a known consumer function.
func (ix *Index) IsConsumer(name string) bool { _, ok := ix.consumersByFn[name]; return ok }

// GeneratorsOf returns the generators of interface iface, in source order.
func (ix *Index) GeneratorsOf(iface string) ([]*Generator, error) {
	if !ix.IsInterface(iface) {
		return nil, diag.NewNotFound("interface", iface)
	}
	return ix.generators[iface], nil
}

// DestructorsOf returns the destructors interface iface declares.
func (ix *Index) DestructorsOf(iface string) ([]*Destructor, error) {
	i, ok := ix.Interfaces[iface]
	if !ok {
		return nil, diag.NewNotFound("interface", iface)
	}
	return i.Destructors, nil
}

// DestructorImpl returns the method implementing destructor name on
// generator g. Not found is an expected, non-fatal outcome: it signals the
// wildcard-arm / default-body path (spec §4.1).
func (ix *Index) DestructorImpl(g *Generator, destructor string) (*ast.FuncDecl, error) {
	fn, ok := g.Methods[destructor]
	if !ok {
		return nil, diag.NewNotFound("destructor implementation", g.Name+"."+destructor)
	}
	return fn, nil
}

// InterfaceOf returns the interface generator g implements.
func (ix *Index) InterfaceOf(generator string) (string, error) {
	iface, ok := ix.generatorOwner[generator]
	if !ok {
		return "", diag.NewNotFound("generator", generator)
	}
	return iface, nil
}

// GeneratorByName looks up a generator by its struct name.
func (ix *Index) GeneratorByName(name string) (*Generator, error) {
	g, ok := ix.generatorOf[name]
	if !ok {
		return nil, diag.NewNotFound("generator", name)
	}
	return g, nil
}

// ConsumersOf returns the destructor-name-keyed consumer map for datatype
// d (spec §3 invariant 4: "Consumers of D are keyed in Γ.enum_consumers[D]
// by their function name").
func (ix *Index) ConsumersOf(d string) (map[string]*Consumer, error) {
	if !ix.IsDatatype(d) {
		return nil, diag.NewNotFound("datatype", d)
	}
	return ix.consumers[d], nil
}

// ConsumerByName looks up a consumer by its function name.
func (ix *Index) ConsumerByName(name string) (*Consumer, error) {
	c, ok := ix.consumersByFn[name]
	if !ok {
		return nil, diag.NewNotFound("consumer", name)
	}
	return c, nil
}

// SignatureOf returns the parameter/result shapes of a free function or
// interface destructor named f.
func (ix *Index) SignatureOf(f string) (params []Field, result shape.Shape, hasResult bool, err error) {
	if fn, ok := ix.Functions[f]; ok {
		return fn.Params, fn.Result, fn.HasResult, nil
	}
	if c, ok := ix.consumersByFn[f]; ok {
		return c.Params, c.Result, c.HasResult, nil
	}
	for _, iface := range ix.Interfaces {
		if d, ok := iface.Destructor(f); ok {
			return d.Params, d.Result, d.HasResult, nil
		}
	}
	return nil, shape.Shape{}, false, diag.NewNotFound("signature", f)
}

// IsSubtype reports whether A is a generator of trait B or a variant of
// datatype B (spec §4.1).
func (ix *Index) IsSubtype(a, b string) bool {
	if iface, ok := ix.generatorOwner[a]; ok && iface == b {
		return true
	}
	if dt, ok := ix.Datatypes[b]; ok {
		if _, ok := dt.Variant(a); ok {
			return true
		}
	}
	return false
}

// FieldType returns the declared shape of field f on record/variant r.
func (ix *Index) FieldType(r, f string) (shape.Shape, error) {
	if st, ok := ix.Structs[r]; ok {
		for _, field := range st.Fields {
			if field.Name == f {
				return field.Shape, nil
			}
		}
	}
	for _, dt := range ix.Datatypes {
		if v, ok := dt.Variant(r); ok {
			for _, field := range v.Fields {
				if field.Name == f {
					return field.Shape, nil
				}
			}
		}
	}
	return shape.Shape{}, diag.NewNotFound("field", r+"."+f)
}

// AddInterface registers a synthesized interface (spec §3 invariant 5: new
// items are added to Γ before their bodies are rewritten).
func (ix *Index) AddInterface(i *Interface) { ix.Interfaces[i.Name] = i }

// AddDatatype registers a synthesized datatype.
func (ix *Index) AddDatatype(d *Datatype) { ix.Datatypes[d.Name] = d }

// AddStruct registers a synthesized struct (used for freshly emitted
// variant records and generator records).
func (ix *Index) AddStruct(s *Struct) { ix.Structs[s.Name] = s }

// AddFunction registers a synthesized free function.
func (ix *Index) AddFunction(f *Function) { ix.Functions[f.Name] = f }

// AddGenerator registers a synthesized generator under interface iface.
func (ix *Index) AddGenerator(iface string, g *Generator) {
	ix.generators[iface] = append(ix.generators[iface], g)
	ix.generatorOwner[g.Name] = iface
	ix.generatorOf[g.Name] = g
}

// AddConsumer registers a synthesized consumer of datatype d.
func (ix *Index) AddConsumer(d string, c *Consumer) {
	if ix.consumers[d] == nil {
		ix.consumers[d] = make(map[string]*Consumer)
	}
	ix.consumers[d][c.Name] = c
	ix.consumersByFn[c.Name] = c
}

// RemoveInterface deletes interface name and its generators from Γ (spec
// §4.3 Stage 1: superseded items are removed from the residual tree).
func (ix *Index) RemoveInterface(name string) {
	delete(ix.Interfaces, name)
	for _, g := range ix.generators[name] {
		delete(ix.generatorOwner, g.Name)
		delete(ix.generatorOf, g.Name)
		delete(ix.Structs, g.Name)
	}
	delete(ix.generators, name)
}

// RemoveDatatype deletes datatype name and its consumers from Γ.
func (ix *Index) RemoveDatatype(name string) {
	delete(ix.Datatypes, name)
	for fn := range ix.consumers[name] {
		delete(ix.consumersByFn, fn)
	}
	delete(ix.consumers, name)
}
