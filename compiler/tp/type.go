package tp

type (
	// Type is a formal type expression as written in SIL text.
	Type interface {
		typ()
	}

	// Lowered is a '$'-prefixed type annotation. Address types are written $*T.
	Lowered struct {
		Address bool `yaml:"address,omitempty"`
		Type    Type `yaml:"type"`
	}

	// Named is Name<Args...>, optionally a member of Parent (Builtin.Int64, τ_0_0.Stride).
	Named struct {
		Parent Type   `yaml:"parent,omitempty"`
		Name   string `yaml:"name"`
		Args   []Type `yaml:"args,omitempty"`
	}

	Func struct {
		Attrs    []Attr     `yaml:"attrs,omitempty"`
		Generics []Generics `yaml:"generics,omitempty"`
		Params   []Type     `yaml:"params"`
		Result   Type       `yaml:"result"`
	}

	Tuple struct {
		Elems []Type `yaml:"elems"`
	}

	// Existential is a protocol composition P & Q.
	Existential struct {
		Protocols []Type `yaml:"protocols"`
	}

	Metatype struct {
		Thickness string `yaml:"thickness,omitempty"`
		Instance  Type   `yaml:"instance"`
	}

	Optional struct {
		Wrapped Type `yaml:"wrapped"`
	}

	Attributed struct {
		Attrs []Attr `yaml:"attrs"`
		Type  Type   `yaml:"type"`
	}

	Attr struct {
		Name       string      `yaml:"name"`
		Convention *Convention `yaml:"convention,omitempty"`
	}

	// Convention is the argument of @convention(...). Witness is set for witness_method: P.
	Convention struct {
		Name    string `yaml:"name"`
		Witness string `yaml:"witness,omitempty"`
	}

	// Generics is one <...> level of a generic signature.
	Generics struct {
		Params []string      `yaml:"params"`
		Reqs   []Requirement `yaml:"reqs,omitempty"`
	}

	Requirement struct {
		Left  Type    `yaml:"left"`
		Kind  ReqKind `yaml:"kind"`
		Right Type    `yaml:"right"`
	}

	ReqKind string
)

const (
	Conforms ReqKind = ":"
	SameType ReqKind = "=="
)

// Attribute names accepted in type position.
const (
	Thick            = "thick"
	Thin             = "thin"
	ObjCMetatype     = "objc_metatype"
	ConventionAttr   = "convention"
	InGuaranteed     = "in_guaranteed"
	In               = "in"
	InConstant       = "in_constant"
	Out              = "out"
	Inout            = "inout"
	Guaranteed       = "guaranteed"
	Owned            = "owned"
	Unowned          = "unowned"
	CalleeGuaranteed = "callee_guaranteed"
	CalleeOwned      = "callee_owned"
	Noescape         = "noescape"
	Escaping         = "escaping"
	YieldOnce        = "yield_once"
	YieldMany        = "yield_many"
	Yields           = "yields"
	ErrorResult      = "error"
)

var attrs = map[string]struct{}{
	Thick: {}, Thin: {}, ObjCMetatype: {}, ConventionAttr: {},
	InGuaranteed: {}, In: {}, InConstant: {}, Out: {}, Inout: {},
	Guaranteed: {}, Owned: {}, Unowned: {},
	CalleeGuaranteed: {}, CalleeOwned: {}, Noescape: {}, Escaping: {},
	YieldOnce: {}, YieldMany: {}, Yields: {}, ErrorResult: {},
}

func (*Named) typ()       {}
func (*Func) typ()        {}
func (*Tuple) typ()       {}
func (*Existential) typ() {}
func (*Metatype) typ()    {}
func (*Optional) typ()    {}
func (*Attributed) typ()  {}

func IsAttr(name string) bool {
	_, ok := attrs[name]
	return ok
}

func IsThickness(name string) bool {
	return name == Thick || name == Thin || name == ObjCMetatype
}

// Convention returns the calling convention attribute of f if any.
func (f *Func) Convention() *Convention {
	for _, a := range f.Attrs {
		if a.Convention != nil {
			return a.Convention
		}
	}

	return nil
}

// Param returns the index of a generic parameter named n in the signature, or -1.
// Generic parameters are referenced by name only; the signature is the scope.
func (f *Func) Param(n string) (depth, index int) {
	for d, g := range f.Generics {
		for i, p := range g.Params {
			if p == n {
				return d, i
			}
		}
	}

	return -1, -1
}

func Name(path ...string) (t Type) {
	for _, n := range path {
		t = &Named{Parent: t, Name: n}
	}

	return t
}

// Empty is the empty tuple ().
func Empty() *Tuple { return &Tuple{} }
