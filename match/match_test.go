package match

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// Call is one assertion received by a recorder.
type Call struct {
	Op       string
	Actual   interface{}
	Expected interface{}
	Msg      string
}

func (c Call) String() string {
	return fmt.Sprintf("%s(%#v, %#v, %q)", c.Op, c.Actual, c.Expected, c.Msg)
}

type recorder struct {
	Calls []Call
}

func (r *recorder) Equal(actual, expected interface{}, msg string) {
	r.Calls = append(r.Calls, Call{"equal", actual, expected, msg})
}

func (r *recorder) DeepEqual(actual, expected interface{}, msg string) {
	r.Calls = append(r.Calls, Call{"deepEqual", actual, expected, msg})
}

func (r *recorder) Msgs() []string {
	acc := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		acc[i] = c.Msg
	}
	return acc
}

func quiet() *Matcher {
	return &Matcher{
		Config: &Config{},
		Notify: func() {},
	}
}

func checkCalls(t *testing.T, got, want []Call) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d calls; wanted %d:\n%v", len(got), len(want), got)
	}
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Fatalf("call %d:\n  got    %v\n  wanted %v", i, got[i], want[i])
		}
	}
}

func checkMsgs(t *testing.T, r *recorder, want ...string) {
	t.Helper()
	got := r.Msgs()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("got\n  %s\nwanted\n  %s", strings.Join(got, "\n  "), strings.Join(want, "\n  "))
	}
}

func TestCheckMissingProperty(t *testing.T) {
	r := &recorder{}
	spec := Obj("foo", 1, "bar", 2)
	if err := quiet().Check(r, map[string]interface{}{"foo": 1}, spec); err != nil {
		t.Fatal(err)
	}
	checkCalls(t, r.Calls, []Call{
		{"equal", 1, 1, "foo = 1"},
		{"equal", Undefined, 2, "bar = undefined"},
	})
}

func TestCheckShortArray(t *testing.T) {
	r := &recorder{}
	spec := []interface{}{Obj("foo", 1), Obj("foo", 2)}
	actual := []interface{}{map[string]interface{}{"foo": 1}}
	if err := quiet().Check(r, actual, spec); err != nil {
		t.Fatal(err)
	}
	checkCalls(t, r.Calls, []Call{
		{"equal", 1, 1, "spok: 0"},
		{"equal", 1, 1, "·· foo = 1"},
		{"equal", 1, 1, "spok: 1"},
		{"equal", 2, Undefined, `property "foo" checked on null or undefined, this is most likely due to an array in the specs that has more items than the actual array`},
	})
}

func TestCheckNullActual(t *testing.T) {
	r := &recorder{}
	if err := quiet().Check(r, nil, Obj("a", "x")); err != nil {
		t.Fatal(err)
	}
	checkCalls(t, r.Calls, []Call{
		{"equal", "x", nil, fmt.Sprintf(NullGuardFormat, "a")},
	})
}

func TestCheckAllValid(t *testing.T) {
	r := &recorder{}
	actual := map[string]interface{}{
		"hello":        "hello",
		"anArray":      []interface{}{1, 2},
		"anObject":     map[string]interface{}{},
		"anotherArray": []interface{}{1, 2, 3},
		"object":       map[string]interface{}{"foo": "bar"},
		"n":            3,
	}
	spec := Obj(
		"$topic", "spok-test-valid",
		"hello", "hello",
		"anArray", []interface{}{1, 2},
		"anObject", Obj(),
		"anotherArray", []int{1, 2, 3},
		"object", Obj(
			"$topic", "spok-test-valid.object",
			"foo", "bar"),
		"n", GTZ(),
	)
	if err := quiet().Check(r, actual, spec); err != nil {
		t.Fatal(err)
	}
	checkMsgs(t, r,
		"spok: spok-test-valid",
		"·· hello = 'hello'",
		"·· anArray = [ 1, 2 ]",
		"·· anObject = {}",
		"·· anotherArray = [ 1, 2, 3 ]",
		"·· spok: spok-test-valid.object",
		"·· ·· foo = 'bar'",
		"·· n = 3",
	)

	ops := []string{"equal", "equal", "deepEqual", "deepEqual", "deepEqual", "equal", "equal", "equal"}
	for i, c := range r.Calls {
		if c.Op != ops[i] {
			t.Fatalf("call %d: %s != %s", i, c.Op, ops[i])
		}
		if c.Op == "equal" && !Equal(c.Actual, c.Expected) {
			t.Fatalf("call %d failed: %v", i, c)
		}
		if c.Op == "deepEqual" && !DeepEqual(c.Actual, c.Expected) {
			t.Fatalf("call %d failed: %v", i, c)
		}
	}
}

func TestCheckDerivedTopics(t *testing.T) {
	t.Run("parent", func(t *testing.T) {
		r := &recorder{}
		spec := Obj("$topic", "user", "address", Obj("zip", "12345"))
		actual := map[string]interface{}{"address": map[string]interface{}{"zip": "12345"}}
		if err := quiet().Check(r, actual, spec); err != nil {
			t.Fatal(err)
		}
		checkMsgs(t, r,
			"spok: user",
			"·· spok: user.address",
			"·· ·· zip = '12345'")
	})

	t.Run("orphan", func(t *testing.T) {
		r := &recorder{}
		spec := Obj("address", Obj("zip", "12345"))
		actual := map[string]interface{}{"address": map[string]interface{}{"zip": "12345"}}
		if err := quiet().Check(r, actual, spec); err != nil {
			t.Fatal(err)
		}
		checkMsgs(t, r,
			"spok: address",
			"·· zip = '12345'")
	})

	t.Run("arrayOfBools", func(t *testing.T) {
		r := &recorder{}
		spec := Obj("flags", []interface{}{true})
		actual := map[string]interface{}{"flags": []interface{}{true}}
		if err := quiet().Check(r, actual, spec); err != nil {
			t.Fatal(err)
		}
		checkMsgs(t, r,
			"spok: flags",
			"·· 0 = true")
	})
}

func TestCheckPrefix(t *testing.T) {
	r := &recorder{}
	if err := quiet().CheckPrefix(r, map[string]interface{}{"a": 1}, Obj("$topic", "t", "a", 1), "> "); err != nil {
		t.Fatal(err)
	}
	checkMsgs(t, r, "> spok: t", "> ·· a = 1")
}

func TestCheckDoesNotModifySpec(t *testing.T) {
	inner := Obj("zip", "12345", "n", GT(1))
	spec := Obj("$topic", "user", "address", inner)
	before := fmt.Sprintf("%v", spec)
	actual := map[string]interface{}{"address": map[string]interface{}{"zip": "12345", "n": 2}}

	m := quiet()
	m.Config.PrintSpec = true
	a, b := &recorder{}, &recorder{}
	if err := m.Check(a, actual, spec); err != nil {
		t.Fatal(err)
	}
	if err := m.Check(b, actual, spec); err != nil {
		t.Fatal(err)
	}
	checkCalls(t, b.Calls, a.Calls)
	if _, have := inner.Get(TopicKey); have {
		t.Fatal("nested spec acquired a topic")
	}
	if after := fmt.Sprintf("%v", spec); after != before {
		t.Fatalf("%s != %s", after, before)
	}
}

func TestCheckLabels(t *testing.T) {
	actual := map[string]interface{}{"n": 4}

	t.Run("spec", func(t *testing.T) {
		r := &recorder{}
		m := quiet()
		m.Config.PrintSpec = true
		if err := m.Check(r, actual, Obj("n", GT(3))); err != nil {
			t.Fatal(err)
		}
		checkMsgs(t, r, "n = 4  satisfies: spok.gt(3)")
	})

	t.Run("description", func(t *testing.T) {
		r := &recorder{}
		m := quiet()
		m.Config.PrintSpec = true
		m.Config.PrintDescription = true
		if err := m.Check(r, actual, Obj("n", GT(3))); err != nil {
			t.Fatal(err)
		}
		checkMsgs(t, r, "n = 4  satisfies: spok.gt(3)  value > 3")
	})

	t.Run("off", func(t *testing.T) {
		r := &recorder{}
		m := quiet()
		m.Config.PrintDescription = true
		if err := m.Check(r, actual, Obj("n", Satisfies("big", func(x interface{}) bool { return true }))); err != nil {
			t.Fatal(err)
		}
		checkMsgs(t, r, "n = 4")
	})

	t.Run("named", func(t *testing.T) {
		r := &recorder{}
		m := quiet()
		m.Config.PrintSpec = true
		if err := m.Check(r, actual, Obj("n", isEven)); err != nil {
			t.Fatal(err)
		}
		checkMsgs(t, r, "n = 4  satisfies: isEven")
		if r.Calls[0].Actual != true {
			t.Fatal(r.Calls[0])
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		r := &recorder{}
		m := quiet()
		m.Config.PrintSpec = true
		fn := func(x interface{}) bool { return false }
		if err := m.Check(r, actual, Obj("n", fn)); err != nil {
			t.Fatal(err)
		}
		checkCalls(t, r.Calls, []Call{{"equal", false, true, "n = 4"}})
	})

	t.Run("annotatedObject", func(t *testing.T) {
		r := &recorder{}
		m := quiet()
		m.Config.PrintSpec = true
		m.Config.PrintDescription = true
		spec := Obj("o", Obj("$spec", "an o", "$description", "the o", "a", 1))
		if err := m.Check(r, map[string]interface{}{"o": map[string]interface{}{"a": 1}}, spec); err != nil {
			t.Fatal(err)
		}
		checkMsgs(t, r, "spok: o", "·· a = 1")
	})
}

func isEven(n int) bool {
	return n%2 == 0
}

type gate bool

func (g gate) AllowsColor() bool { return bool(g) }

func TestCheckColor(t *testing.T) {
	actual := map[string]interface{}{"n": 4}

	m := quiet()
	m.Config.Color = true
	m.Config.PrintSpec = true

	r := &recorder{}
	if err := m.Check(r, actual, Obj("n", GT(3))); err != nil {
		t.Fatal(err)
	}
	checkMsgs(t, r, "n = \x1b[33m4\x1b[39m  \x1b[90msatisfies: spok.gt(3)\x1b[39m")

	m.Gate = gate(false)
	r = &recorder{}
	if err := m.Check(r, actual, Obj("n", GT(3))); err != nil {
		t.Fatal(err)
	}
	checkMsgs(t, r, "n = 4  satisfies: spok.gt(3)")
}

func TestCheckConfigChanges(t *testing.T) {
	m := quiet()
	r := &recorder{}
	flip := Satisfies("flip", func(x interface{}) bool {
		m.Config.PrintSpec = true
		return true
	})
	spec := Obj("a", flip, "b", flip)
	if err := m.Check(r, map[string]interface{}{"a": 1, "b": 2}, spec); err != nil {
		t.Fatal(err)
	}
	// The message is built before the predicate runs.
	checkMsgs(t, r, "a = 1", "b = 2  satisfies: flip")
}

func TestCheckSound(t *testing.T) {
	m := quiet()
	m.Config.Sound = true
	n := 0
	m.Notify = func() { n++ }
	spec := Obj("a", Obj("b", 1))
	if err := m.Check(&recorder{}, map[string]interface{}{"a": map[string]interface{}{"b": 1}}, spec); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatal(n)
	}
}

type User struct {
	Name    string   `json:"name"`
	Age     int      `json:"age"`
	Aliases []string `json:"aliases"`
}

func TestCheckStruct(t *testing.T) {
	r := &recorder{}
	u := &User{Name: "homer", Age: 39, Aliases: []string{"mr. x"}}
	spec := Obj("name", StartsWith("ho"), "age", Range(30, 40), "aliases", []interface{}{"mr. x"}, "Name", "homer")
	if err := quiet().Check(r, u, spec); err != nil {
		t.Fatal(err)
	}
	checkMsgs(t, r,
		"name = 'homer'",
		"age = 39",
		"aliases = [ 'mr. x' ]",
		"Name = 'homer'")
	for _, c := range r.Calls {
		if c.Op == "equal" && !Equal(c.Actual, c.Expected) {
			t.Fatal(c)
		}
		if c.Op == "deepEqual" && !DeepEqual(c.Actual, c.Expected) {
			t.Fatal(c)
		}
	}
}

func TestCheckUnknownKind(t *testing.T) {
	r := &recorder{}
	err := quiet().Check(r, map[string]interface{}{}, Obj("a", 1, "c", make(chan int), "d", 2))
	if err == nil {
		t.Fatal("expected an error")
	}
	e, is := err.(*UnknownSpecKind)
	if !is {
		t.Fatalf("%T", err)
	}
	if e.Key != "c" {
		t.Fatal(e.Key)
	}
	if err.Error() != `at key "c" type chan int not yet handled` {
		t.Fatal(err)
	}
	// Checking stopped at the bad key.
	checkMsgs(t, r, "a = undefined")
}

func TestCheckPredicateWithoutFn(t *testing.T) {
	for _, p := range []interface{}{Predicate{}, &Predicate{Label: "nothing"}} {
		r := &recorder{}
		err := quiet().Check(r, map[string]interface{}{"a": 1}, Obj("a", p))
		e, is := err.(*UnknownSpecKind)
		if !is {
			t.Fatalf("%T %v", err, err)
		}
		if e.Key != "a" {
			t.Fatal(e.Key)
		}
		if len(r.Calls) != 0 {
			t.Fatal(r.Calls)
		}
	}
}

func TestConfigPatch(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "1")

	yes := true
	cfg := (&ConfigPatch{Sound: &yes}).Apply(&Config{PrintSpec: true, Color: true})
	if !cfg.PrintSpec || !cfg.Sound || !cfg.Color || cfg.PrintDescription {
		t.Fatalf("%#v", cfg)
	}

	var nothing *ConfigPatch
	if got := nothing.Apply(&Config{PrintSpec: true}); !got.PrintSpec {
		t.Fatalf("%#v", got)
	}

	t.Setenv("FORCE_COLOR", "")
	t.Setenv("NO_COLOR", "1")
	if got := (&ConfigPatch{Color: &yes}).Apply(&Config{}); got.Color {
		t.Fatal("colors despite NO_COLOR")
	}
}

func TestCheckScalarRoot(t *testing.T) {
	if err := quiet().Check(&recorder{}, 1, 1); err == nil {
		t.Fatal("expected an error")
	}
}

func TestCheckPredicatePanics(t *testing.T) {
	defer func() {
		if x := recover(); x != "boom" {
			t.Fatal(x)
		}
	}()
	spec := Obj("a", Satisfies("boom", func(x interface{}) bool { panic("boom") }))
	quiet().Check(&recorder{}, map[string]interface{}{"a": 1}, spec)
	t.Fatal("should have panicked")
}

func TestCheckSortedMapSpec(t *testing.T) {
	r := &recorder{}
	spec := map[string]interface{}{"b": 2, "a": 1, "c": 3}
	if err := quiet().Check(r, map[string]interface{}{"a": 1, "b": 2, "c": 3}, spec); err != nil {
		t.Fatal(err)
	}
	checkMsgs(t, r, "a = 1", "b = 2", "c = 3")
}

func TestCheckObjectActual(t *testing.T) {
	r := &recorder{}
	if err := quiet().Check(r, Obj("a", nil), Obj("a", nil, "b", Undefined)); err != nil {
		t.Fatal(err)
	}
	checkCalls(t, r.Calls, []Call{
		{"equal", nil, nil, "a = null"},
		{"equal", Undefined, Undefined, "b = undefined"},
	})
}

func TestPackageCheck(t *testing.T) {
	r := &recorder{}
	if err := Check(r, map[string]interface{}{"a": 1}, Obj("a", 1)); err != nil {
		t.Fatal(err)
	}
	if len(r.Calls) != 1 || !strings.HasPrefix(r.Calls[0].Msg, "a = ") {
		t.Fatal(r.Calls)
	}
}
