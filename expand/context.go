// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"cmp"
	"context"
	"io"
	"slices"
	"strings"
)

// Environ is the base interface for a shell's environment, allowing the
// expander to fetch variables by name and iterate over all currently set
// variables. The variable store itself is out of scope for this package;
// this is the narrow surface the expander needs from it.
type Environ interface {
	// Get retrieves a variable by its name. Check [Variable.IsSet] to
	// tell an unset variable apart from one set to the empty string.
	Get(name string) Variable

	// Each iterates over all the currently set variables, calling fn on
	// each. Iteration stops early if fn returns false. Names need not be
	// unique or sorted; if a name repeats, the latest occurrence wins.
	Each(fn func(name string, vr Variable) bool)
}

// WriteEnviron extends Environ with the ability to create, replace, or
// unset a variable, used by the `=`/`:=` parameter-expansion operators and
// by `++`/`--` in arithmetic expansion.
type WriteEnviron interface {
	Environ
	// Set sets a variable by name. If !vr.IsSet(), the variable is being
	// unset. An error is returned for an invalid operation, such as
	// writing to a read-only variable.
	Set(name string, vr Variable) error
}

// ValueKind describes which of a Variable's value fields is meaningful.
type ValueKind uint8

const (
	Unknown ValueKind = iota
	String
	NameRef
	Indexed
	Associative
)

// Variable describes a shell variable: its attributes and its value.
type Variable struct {
	Set      bool
	ReadOnly bool
	Exported bool

	Kind ValueKind

	Str string            // Kind == String or NameRef
	List []string          // Kind == Indexed
	Map  map[string]string // Kind == Associative
}

// IsSet reports whether the variable has been assigned a value, which may be
// empty.
func (v Variable) IsSet() bool { return v.Set }

// String returns the variable's value as a single string, for the kinds
// where that makes sense (a plain string, or element 0 of an indexed
// array, matching bash's scalar-context coercion of arrays).
func (v Variable) String() string {
	switch v.Kind {
	case String, NameRef:
		return v.Str
	case Indexed:
		if len(v.List) > 0 {
			return v.List[0]
		}
	}
	return ""
}

// maxNameRefDepth caps how many times a `declare -n` chain is followed when
// resolving a variable, so that a reference cycle cannot hang the expander.
const maxNameRefDepth = 100

// Resolve follows a chain of nameref variables and returns the last name
// visited along with the variable it ultimately points to.
func (v Variable) Resolve(env Environ) (string, Variable) {
	name := ""
	for range maxNameRefDepth {
		if v.Kind != NameRef {
			return name, v
		}
		name = v.Str
		v = env.Get(name)
	}
	return name, Variable{}
}

// ListEnviron returns an Environ backed by a sorted "name=value" list, such
// as os.Environ(). All variables are exported. If a name repeats, the last
// occurrence wins.
func ListEnviron(pairs ...string) Environ {
	list := slices.Clone(pairs)
	slices.SortStableFunc(list, func(a, b string) int {
		return strings.Compare(nameOf(a), nameOf(b))
	})
	last := ""
	out := list[:0]
	for _, p := range list {
		name := nameOf(p)
		if name == "" {
			continue
		}
		if name == last && len(out) > 0 {
			out[len(out)-1] = p
			continue
		}
		out = append(out, p)
		last = name
	}
	return listEnviron(out)
}

func nameOf(pair string) string {
	name, _, ok := strings.Cut(pair, "=")
	if !ok {
		return ""
	}
	return name
}

type listEnviron []string

func (l listEnviron) Get(name string) Variable {
	i, ok := slices.BinarySearchFunc(l, name, func(pair, name string) int {
		return cmp.Compare(nameOf(pair), name)
	})
	if !ok {
		return Variable{}
	}
	_, val, _ := strings.Cut(l[i], "=")
	return Variable{Set: true, Exported: true, Kind: String, Str: val}
}

func (l listEnviron) Each(fn func(name string, vr Variable) bool) {
	for _, pair := range l {
		name, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if !fn(name, Variable{Set: true, Exported: true, Kind: String, Str: val}) {
			return
		}
	}
}

// Executor is the host capability used by command substitution (and, for
// the surrounding compound command, process substitution) to run a parsed
// command and capture its output. The parser/executor proper is out of
// scope for this package; this is the abstract "execute a parsed command
// and capture its output" callback the word expander needs from it.
type Executor interface {
	// Execute runs the statement list belonging to a command or process
	// substitution, writing its standard output to w. It blocks until
	// the command finishes and returns its exit status.
	Execute(ctx context.Context, w io.Writer, source CmdSubstSource) (exitStatus int, err error)
}

// CmdSubstSource is an opaque handle to the parsed command behind a
// `$(...)`, `` `...` ``, `<(...)`, or `>(...)` construct. The expander never
// inspects it; it only threads it through to the Executor.
type CmdSubstSource any

// Globber is the host capability used for pathname expansion.
type Globber interface {
	// Glob enumerates filenames matching pattern. A nil slice (as opposed
	// to an empty, non-nil one) signals "no such directory", which the
	// pathname expander treats the same as "no match".
	Glob(pattern string) []string
}

// TildeExpander resolves a tilde-prefix (`~`, `~user`, `~+`, `~-`, `~N`) to
// its expansion, or returns the prefix unchanged if it cannot be resolved.
type TildeExpander interface {
	ExpandTilde(prefix string) (string, bool)
}

// Config bundles the per-call configuration and host capabilities the
// expander needs, mirroring expand.Config/expand.Context in mvdan-sh
// (interp/interp.go:70, expand/expand.go:23-42) but adding the Executor,
// Globber, and TildeExpander capabilities, since mvdan-sh's own expand
// package can reach those directly (they live in the same binary) while
// ours must receive them as a capability.
type Config struct {
	Env      Environ
	Executor Executor
	Globber  Globber
	Tilde    TildeExpander

	// ProcSubst, when non-nil, is invoked for <(...) and >(...); see
	// procsubst.Table for the lifecycle it manages.
	ProcSubst func(ctx context.Context, op ProcSubstOp, source CmdSubstSource) (path string, err error)

	NoGlob          bool
	GlobStar        bool
	FailGlob        bool
	NullGlob        bool
	BraceExpansion  bool
	Multibyte       bool
	POSIXMode       bool
	Unbound         bool // set -u
	ExtendedGlob    bool

	// DollarAtVanishesInDefault and Posix888 resolve two open questions
	// about "$@" with zero positional parameters in an unquoted context,
	// and about a handful of POSIX-vs-bash divergences. They are
	// per-Config fields, never package-level globals. No code in this
	// package reads either field, so setting them does not change
	// expansion.
	DollarAtVanishesInDefault bool
	Posix888                  bool

	// ProcSubstSweep, when non-nil, is called on a fatal expansion error
	// to tear down any pending process-substitution pipelines. A host
	// that wires ProcSubst with a procsubst.Table typically sets this to
	// that table's Sweep method.
	ProcSubstSweep func() []error

	ifs     string
	ifsSet  bool
	fastIFS bool
}

// ProcSubstOp distinguishes <(...) (ProcSubstIn, the child's stdout feeds us)
// from >(...) (ProcSubstOut, the child reads from us).
type ProcSubstOp int

const (
	ProcSubstIn ProcSubstOp = iota
	ProcSubstOut
)

func (c *Config) prepareIFS() {
	if c.Env == nil {
		c.ifs, c.ifsSet = " \t\n", false
		return
	}
	vr := c.resolveVar(c.Env.Get("IFS"))
	if !vr.IsSet() {
		c.ifs, c.ifsSet = " \t\n", false
		return
	}
	c.ifs, c.ifsSet = vr.String(), true
}

// resolveVar follows vr through a declare -n nameref chain, returning the
// variable it ultimately points to; a non-nameref variable passes through
// unchanged.
func (c *Config) resolveVar(vr Variable) Variable {
	if vr.Kind != NameRef || c.Env == nil {
		return vr
	}
	_, resolved := vr.Resolve(c.Env)
	return resolved
}

func (c *Config) envGet(name string) string {
	if c.Env == nil {
		return ""
	}
	return c.resolveVar(c.Env.Get(name)).String()
}

func (c *Config) envSet(name, value string) error {
	if c.Env == nil {
		return nil
	}
	we, ok := c.Env.(WriteEnviron)
	if !ok {
		return fatalf("%s: cannot assign in this way", name)
	}
	return we.Set(name, Variable{Set: true, Kind: String, Str: value})
}
