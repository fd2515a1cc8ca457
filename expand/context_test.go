package expand

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
)

type mapEnviron map[string]Variable

func (m mapEnviron) Get(name string) Variable { return m[name] }

func (m mapEnviron) Each(fn func(name string, vr Variable) bool) {
	for name, vr := range m {
		if !fn(name, vr) {
			return
		}
	}
}

func TestVariableResolveFollowsChain(t *testing.T) {
	c := qt.New(t)
	env := mapEnviron{
		"ref":    {Set: true, Kind: NameRef, Str: "target"},
		"target": {Set: true, Kind: String, Str: "value"},
	}
	name, vr := env.Get("ref").Resolve(env)
	c.Assert(name, qt.Equals, "target")
	c.Assert(vr.Str, qt.Equals, "value")
}

func TestVariableResolveBreaksCycle(t *testing.T) {
	c := qt.New(t)
	env := mapEnviron{
		"a": {Set: true, Kind: NameRef, Str: "b"},
		"b": {Set: true, Kind: NameRef, Str: "a"},
	}
	_, vr := env.Get("a").Resolve(env)
	c.Assert(vr.Kind, qt.Equals, Unknown)
}

func TestLookupParamResolvesNameRef(t *testing.T) {
	c := qt.New(t)
	cfg := &Config{Env: mapEnviron{
		"ref":    {Set: true, Kind: NameRef, Str: "target"},
		"target": {Set: true, Kind: String, Str: "hello"},
	}}
	got, err := cfg.ExpandLiteral(context.Background(), &WordDesc{Word: "$ref"})
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, "hello")
}

func TestEnvGetResolvesNameRef(t *testing.T) {
	c := qt.New(t)
	cfg := &Config{Env: mapEnviron{
		"HOME_REF": {Set: true, Kind: NameRef, Str: "REAL_HOME"},
		"REAL_HOME": {Set: true, Kind: String, Str: "/home/bob"},
	}}
	c.Assert(cfg.envGet("HOME_REF"), qt.Equals, "/home/bob")
}
