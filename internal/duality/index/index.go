// Package index implements Γ, the global index spec.md §3/§4.1 describes: a
// single-pass visitor over a Go AST that records every interface, datatype,
// generator, consumer, struct, and free function, and answers read-only
// queries about how they relate. Γ is queried read-only after the
// collection pass and extended monotonically as the declaration transformer
// synthesizes new top-level items (spec §3 invariant 5).
package index

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/martianoff/exprdual/internal/duality/diag"
	"github.com/martianoff/exprdual/internal/duality/shape"
)

// Field is a single named, typed field of a struct, variant, or parameter
// list entry.
type Field struct {
	Name  string
	Shape shape.Shape
}

// ReceiverMode distinguishes the three self-modes the OO encoding carries
// (spec §3: "Self" / "&self" / "&mut self"). Go's interface-method and
// struct-method syntax has no receiver-mutability marker, so
// SPEC_FULL.md's realization records it as a trailing line comment on the
// interface's method field — `// self:owned`, `// self:ref`, `// self:mut`
// — defaulting to `self:ref` when absent, since a read-only borrow is the
// common case. This is the same kind of ad hoc syntactic convention the
// teacher itself invents for gaps in Go's syntax (e.g. sealed.go's
// `_Shape_Circle` tag constants and `_variant` field).
type ReceiverMode int

const (
	RecvOwned ReceiverMode = iota
	RecvBorrowed
	RecvMutable
)

func (m ReceiverMode) String() string {
	switch m {
	case RecvOwned:
		return "owned"
	case RecvMutable:
		return "mut"
	default:
		return "ref"
	}
}

func parseReceiverMode(c *ast.CommentGroup) ReceiverMode {
	if c == nil {
		return RecvBorrowed
	}
	text := strings.TrimSpace(c.Text())
	switch {
	case strings.Contains(text, "self:owned"):
		return RecvOwned
	case strings.Contains(text, "self:mut"):
		return RecvMutable
	default:
		return RecvBorrowed
	}
}

func receiverComment(mode ReceiverMode) string {
	switch mode {
	case RecvOwned:
		return "self:owned"
	case RecvMutable:
		return "self:mut"
	default:
		return "self:ref"
	}
}

// parseDefaultAnnotation extracts the name of a default-body sibling
// function from an interface method's trailing comment — `// default:Name`
// — spec.md §3/§4.4 point 2's optional default destructor body, realized in
// Go by the same ad hoc trailing-comment convention parseReceiverMode
// already uses for self-mode, since Go's interface methods cannot carry a
// body of their own.
func parseDefaultAnnotation(c *ast.CommentGroup) (string, bool) {
	if c == nil {
		return "", false
	}
	text := strings.TrimSpace(c.Text())
	const marker = "default:"
	idx := strings.Index(text, marker)
	if idx < 0 {
		return "", false
	}
	fields := strings.Fields(text[idx+len(marker):])
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// Destructor is an operation declared on an interface (spec: "an operation
// of the interface; in pattern-matching terms, the selector of a case").
type Destructor struct {
	Name      string
	Params    []Field
	Result    shape.Shape
	HasResult bool
	Receiver  ReceiverMode
	Default   *ast.FuncDecl // non-nil if the interface supplies a default body
}

// Interface is the OO-encoding half of the duality: a named set of
// destructor signatures.
type Interface struct {
	Name        string
	Decl        *ast.GenDecl
	Spec        *ast.TypeSpec
	Type        *ast.InterfaceType
	Destructors []*Destructor
}

func (i *Interface) Destructor(name string) (*Destructor, bool) {
	for _, d := range i.Destructors {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Variant is one case of a datatype: a named record of typed fields.
type Variant struct {
	Name   string
	Fields []Field
}

// Datatype is the FP-encoding half of the duality: a tagged sum of named
// record variants, realized (SPEC_FULL.md §0) as a sealed interface with an
// unexported marker method plus one struct per variant.
type Datatype struct {
	Name       string
	Decl       *ast.GenDecl
	Spec       *ast.TypeSpec
	Type       *ast.InterfaceType
	MarkerName string
	Variants   []*Variant
}

func (d *Datatype) Variant(name string) (*Variant, bool) {
	for _, v := range d.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Generator is a concrete record type together with an implementation block
// binding each destructor of an interface to a body.
type Generator struct {
	Name      string
	Interface string
	Fields    []Field
	StructDec *ast.GenDecl
	StructSp  *ast.TypeSpec
	Struct    *ast.StructType
	Methods   map[string]*ast.FuncDecl // destructor name -> implementing method
}

// Consumer is a free function dispatching by case analysis on a
// datatype-typed first argument.
type Consumer struct {
	Name        string
	Datatype    string
	Decl        *ast.FuncDecl
	SelfName    string
	Receiver    ReceiverMode
	Params      []Field // excludes the self parameter
	Result      shape.Shape
	HasResult   bool
	Switch      *ast.TypeSwitchStmt // the dispatching type-switch, nil if DefaultOnly
	Total       bool                // every variant covered, no wildcard needed
	DefaultOnly bool                // body has no match; one body used for every variant
}

// Struct is a plain record type: a datatype variant and a generator record
// are both indexed here too (spec §4.1's field-type queries must resolve
// against "record/variant" uniformly).
type Struct struct {
	Name   string
	Decl   *ast.GenDecl
	Spec   *ast.TypeSpec
	Type   *ast.StructType
	Fields []Field
}

// Function is a free function that is not a consumer of any datatype.
type Function struct {
	Name      string
	Decl      *ast.FuncDecl
	Params    []Field
	Result    shape.Shape
	HasResult bool
}

// Index is Γ.
type Index struct {
	Interfaces map[string]*Interface
	Datatypes  map[string]*Datatype
	Structs    map[string]*Struct
	Functions  map[string]*Function

	generators     map[string][]*Generator          // interface name -> generators, source order
	generatorOwner map[string]string                // generator name -> interface name
	generatorOf    map[string]*Generator             // generator name -> generator
	consumers      map[string]map[string]*Consumer  // datatype name -> destructor name -> consumer
	consumersByFn  map[string]*Consumer             // function name -> consumer
}

// New builds an empty Γ.
func New() *Index {
	return &Index{
		Interfaces:     make(map[string]*Interface),
		Datatypes:      make(map[string]*Datatype),
		Structs:        make(map[string]*Struct),
		Functions:      make(map[string]*Function),
		generators:     make(map[string][]*Generator),
		generatorOwner: make(map[string]string),
		generatorOf:    make(map[string]*Generator),
		consumers:      make(map[string]map[string]*Consumer),
		consumersByFn:  make(map[string]*Consumer),
	}
}

func isMarkerName(ifaceName, methodName string) bool {
	return methodName == "is"+ifaceName
}

// Build performs the traversal spec §4.1 describes, populating a fresh Γ
// from the root file. It aggregates every structural-invariant violation it
// finds (spec §3) into one multierror instead of aborting on the first.
func Build(file *ast.File) (*Index, error) {
	ix := New()
	var errs *multierror.Error

	var interfaceSpecs []*ast.TypeSpec
	var interfaceDecls []*ast.GenDecl
	var structSpecs []*ast.TypeSpec
	var structDecls []*ast.GenDecl
	var methodDecls []*ast.FuncDecl
	var freeFuncs []*ast.FuncDecl
	freeFuncsByName := map[string]*ast.FuncDecl{}

	// Pass 1: discover every name so later shape resolution can tell a
	// polymorphic (interface/datatype) type name from a concrete one.
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				switch t := ts.Type.(type) {
				case *ast.InterfaceType:
					interfaceSpecs = append(interfaceSpecs, ts)
					interfaceDecls = append(interfaceDecls, d)
					ix.preregister(ts.Name.Name, t)
				case *ast.StructType:
					structSpecs = append(structSpecs, ts)
					structDecls = append(structDecls, d)
				}
			}
		case *ast.FuncDecl:
			if d.Recv != nil {
				methodDecls = append(methodDecls, d)
			} else {
				freeFuncs = append(freeFuncs, d)
				freeFuncsByName[d.Name.Name] = d
			}
		}
	}

	// Pass 2: now that the polymorphic-name universe is known, resolve
	// struct field shapes and interface destructor signatures.
	for i, ts := range structSpecs {
		st := ts.Type.(*ast.StructType)
		ix.Structs[ts.Name.Name] = &Struct{
			Name:   ts.Name.Name,
			Decl:   structDecls[i],
			Spec:   ts,
			Type:   st,
			Fields: ix.fieldsOfStruct(st),
		}
	}
	for i, ts := range interfaceSpecs {
		it := ts.Type.(*ast.InterfaceType)
		ix.resolveInterfaceOrDatatype(interfaceDecls[i], ts, it, freeFuncsByName)
	}

	// Pass 3: attach methods to generators (destructor implementations) or
	// to datatype variants (marker-method implementations).
	for _, fn := range methodDecls {
		if err := ix.attachMethod(fn); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	// Pass 4: classify free functions into consumers of a known datatype,
	// or plain functions.
	for _, fn := range freeFuncs {
		c, isConsumer, err := classifyFunction(fn, ix)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if isConsumer {
			if ix.consumers[c.Datatype] == nil {
				ix.consumers[c.Datatype] = make(map[string]*Consumer)
			}
			ix.consumers[c.Datatype][c.Name] = c
			ix.consumersByFn[c.Name] = c
		} else {
			ix.Functions[fn.Name.Name] = &Function{
				Name:      fn.Name.Name,
				Decl:      fn,
				Params:    ix.fieldsOf(fn.Type.Params, false),
				Result:    ix.resultShapeOf(fn.Type.Results),
				HasResult: fn.Type.Results != nil && len(fn.Type.Results.List) > 0,
			}
		}
	}

	return ix, errs.ErrorOrNil()
}

// preregister records whether a name is an interface or a datatype (by
// marker-method presence) before field/destructor shapes are resolved, so
// Pass 2 can already tell a polymorphic name from a concrete one.
func (ix *Index) preregister(name string, it *ast.InterfaceType) {
	for _, m := range it.Methods.List {
		if len(m.Names) == 1 && isMarkerName(name, m.Names[0].Name) {
			ix.Datatypes[name] = &Datatype{Name: name, MarkerName: m.Names[0].Name}
			return
		}
	}
	ix.Interfaces[name] = &Interface{Name: name}
}

func (ix *Index) resolveInterfaceOrDatatype(decl *ast.GenDecl, ts *ast.TypeSpec, it *ast.InterfaceType, freeFuncs map[string]*ast.FuncDecl) {
	name := ts.Name.Name
	if dt, ok := ix.Datatypes[name]; ok {
		dt.Decl, dt.Spec, dt.Type = decl, ts, it
		return
	}
	iface := ix.Interfaces[name]
	iface.Decl, iface.Spec, iface.Type = decl, ts, it
	for _, m := range it.Methods.List {
		if len(m.Names) != 1 {
			continue
		}
		ft, ok := m.Type.(*ast.FuncType)
		if !ok {
			continue
		}
		var def *ast.FuncDecl
		if defName, ok := parseDefaultAnnotation(m.Comment); ok {
			def = freeFuncs[defName]
		}
		iface.Destructors = append(iface.Destructors, &Destructor{
			Name:      m.Names[0].Name,
			Params:    ix.fieldsOf(ft.Params, false),
			Result:    ix.resultShapeOf(ft.Results),
			HasResult: ft.Results != nil && len(ft.Results.List) > 0,
			Receiver:  parseReceiverMode(m.Comment),
			Default:   def,
		})
	}
}

// attachMethod routes a method to a datatype-variant marker or to a
// generator's destructor implementation.
func (ix *Index) attachMethod(fn *ast.FuncDecl) error {
	recvName, _ := receiverTypeName(fn.Recv)
	if recvName == "" {
		return diag.NewUnsupported("method %s has an unrecognizable receiver", fn.Name.Name)
	}

	for dtName, dt := range ix.Datatypes {
		if isMarkerName(dtName, fn.Name.Name) {
			ix.registerVariant(dt, recvName)
			return nil
		}
	}

	st, ok := ix.Structs[recvName]
	if !ok {
		return nil
	}

	iface, err := ix.interfaceDeclaring(fn.Name.Name)
	if err != nil {
		// A method with no interface counterpart is just a helper method;
		// not every struct method need be a destructor implementation.
		return nil
	}

	existing, already := ix.generatorOwner[recvName]
	if already && existing != iface.Name {
		return diag.NewUnsupported(
			"generator %q implements more than one interface (%q and %q); multi-interface generators are unsupported",
			recvName, existing, iface.Name)
	}

	g, ok := ix.generatorOf[recvName]
	if !ok {
		g = &Generator{
			Name:      recvName,
			Interface: iface.Name,
			Fields:    st.Fields,
			StructDec: st.Decl,
			StructSp:  st.Spec,
			Struct:    st.Type,
			Methods:   make(map[string]*ast.FuncDecl),
		}
		ix.generators[iface.Name] = append(ix.generators[iface.Name], g)
		ix.generatorOwner[recvName] = iface.Name
		ix.generatorOf[recvName] = g
	}
	g.Methods[fn.Name.Name] = fn
	return nil
}

func (ix *Index) registerVariant(dt *Datatype, recvName string) {
	if _, ok := dt.Variant(recvName); ok {
		return
	}
	var fields []Field
	if st, ok := ix.Structs[recvName]; ok {
		fields = st.Fields
	}
	dt.Variants = append(dt.Variants, &Variant{Name: recvName, Fields: fields})
}

// interfaceDeclaring finds the unique interface declaring a destructor
// named methodName. Go's bare method-on-struct syntax carries no explicit
// trait reference (unlike Rust's `impl Trait for Struct`), so generator
// attribution is resolved by matching the method name against the known
// destructor set. A name declared by no interface, or by two, yields an
// error, and attachMethod then treats the method as a plain helper rather
// than guessing an interface.
func (ix *Index) interfaceDeclaring(methodName string) (*Interface, error) {
	var found *Interface
	for _, iface := range ix.Interfaces {
		if _, ok := iface.Destructor(methodName); ok {
			if found != nil && found != iface {
				return nil, diag.NewNotFound("interface", methodName)
			}
			found = iface
		}
	}
	if found == nil {
		return nil, diag.NewNotFound("interface", methodName)
	}
	return found, nil
}

func receiverTypeName(recv *ast.FieldList) (name string, pointer bool) {
	if recv == nil || len(recv.List) != 1 {
		return "", false
	}
	switch t := recv.List[0].Type.(type) {
	case *ast.Ident:
		return t.Name, false
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name, true
		}
	}
	return "", false
}

func (ix *Index) fieldsOfStruct(st *ast.StructType) []Field {
	var out []Field
	if st.Fields == nil {
		return out
	}
	for _, f := range st.Fields.List {
		sh := ix.shapeOfExpr(f.Type, true)
		for _, n := range f.Names {
			out = append(out, Field{Name: n.Name, Shape: sh})
		}
	}
	return out
}

func (ix *Index) fieldsOf(list *ast.FieldList, inStructField bool) []Field {
	var out []Field
	if list == nil {
		return out
	}
	for _, f := range list.List {
		sh := ix.shapeOfExpr(f.Type, inStructField)
		if len(f.Names) == 0 {
			out = append(out, Field{Name: "", Shape: sh})
			continue
		}
		for _, n := range f.Names {
			out = append(out, Field{Name: n.Name, Shape: sh})
		}
	}
	return out
}

func (ix *Index) resultShapeOf(list *ast.FieldList) shape.Shape {
	if list == nil || len(list.List) == 0 {
		return shape.Named("")
	}
	return ix.shapeOfExpr(list.List[0].Type, false)
}

// isPolymorphic reports whether name is a known interface or datatype.
func (ix *Index) isPolymorphic(name string) bool {
	if _, ok := ix.Interfaces[name]; ok {
		return true
	}
	if _, ok := ix.Datatypes[name]; ok {
		return true
	}
	return false
}

// shapeOfExpr converts a Go type expression into the shape algebra. `*T`
// is one layer of Ref. A bare identifier naming a known interface/datatype
// used as a struct field is one layer of Box (SPEC_FULL.md §0: a
// polymorphic value can only be stored as a struct field through an owning
// indirection; Go's interface values already carry that indirection, so
// storing it "by value" as a field is exactly the Box case described by
// spec §3's ref-form lattice).
func (ix *Index) shapeOfExpr(expr ast.Expr, inStructField bool) shape.Shape {
	switch t := expr.(type) {
	case *ast.Ident:
		sh := shape.Named(t.Name)
		if inStructField && ix.isPolymorphic(t.Name) {
			return sh.BoxOf()
		}
		return sh
	case *ast.StarExpr:
		inner := ix.shapeOfExpr(t.X, false)
		return inner.RefOf()
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			return shape.Named(pkg.Name + "." + t.Sel.Name)
		}
		return shape.Named(t.Sel.Name)
	default:
		return shape.Named(exprText(expr))
	}
}

func exprText(expr ast.Expr) string {
	var sb strings.Builder
	switch t := expr.(type) {
	case *ast.ArrayType:
		sb.WriteString("[]")
		sb.WriteString(exprText(t.Elt))
	case *ast.MapType:
		sb.WriteString("map[")
		sb.WriteString(exprText(t.Key))
		sb.WriteByte(']')
		sb.WriteString(exprText(t.Value))
	default:
		sb.WriteString("?")
	}
	return sb.String()
}
