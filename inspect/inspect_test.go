package inspect

import (
	"math"
	"regexp"
	"strings"
	"testing"
)

type undef struct{}

func (undef) IsUndefined() bool { return true }

type label string

func (l label) SpecLabel() string { return string(l) }

type ordered struct {
	keys []string
	vals map[string]interface{}
}

func (o ordered) Keys() []string { return o.keys }

func (o ordered) Get(k string) (interface{}, bool) {
	x, have := o.vals[k]
	return x, have
}

type Person struct {
	Name string
	Age  int
	pin  int
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name string
		x    interface{}
		want string
	}{
		{"string", "hello", "'hello'"},
		{"quote", "it's", `"it's"`},
		{"newline", "a\nb", `'a\nb'`},
		{"int", 42, "42"},
		{"float", 1.5, "1.5"},
		{"whole", 2.0, "2"},
		{"nan", math.NaN(), "NaN"},
		{"true", true, "true"},
		{"null", nil, "null"},
		{"undefined", undef{}, "undefined"},
		{"emptyArray", []interface{}{}, "[]"},
		{"array", []interface{}{1, 2}, "[ 1, 2 ]"},
		{"ints", []int{1, 2, 3}, "[ 1, 2, 3 ]"},
		{"emptyMap", map[string]interface{}{}, "{}"},
		{"map", map[string]interface{}{"foo": "bar", "a": 1}, "{ a: 1, foo: 'bar' }"},
		{"key", map[string]interface{}{"a-b": 1}, "{ 'a-b': 1 }"},
		{"ordered", ordered{[]string{"z", "a"}, map[string]interface{}{"z": 1, "a": 2}}, "{ z: 1, a: 2 }"},
		{"struct", Person{"homer", 39, 0}, "Person { Name: 'homer', Age: 39 }"},
		{"pointer", &Person{"bart", 10, 0}, "Person { Name: 'bart', Age: 10 }"},
		{"nilPointer", (*Person)(nil), "null"},
		{"label", label("spok.gtz"), "[Function: spok.gtz]"},
		{"anonymousLabel", label(""), "[Function (anonymous)]"},
		{"func", func() {}, "[Function (anonymous)]"},
		{"regexp", regexp.MustCompile("^a"), "/^a/"},
		{"nested", map[string]interface{}{"a": map[string]interface{}{"b": []interface{}{1}}}, "{ a: { b: [ 1 ] } }"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Inspect(test.x, false); got != test.want {
				t.Fatalf("got %q; wanted %q", got, test.want)
			}
		})
	}
}

func TestInspectDepth(t *testing.T) {
	var x interface{} = 1
	for i := 0; i < DefaultDepth+2; i++ {
		x = map[string]interface{}{"a": x}
	}
	got := Inspect(x, false)
	if !strings.Contains(got, "[Object]") {
		t.Fatal(got)
	}

	got = Options{Depth: 0}.Inspect([]interface{}{[]interface{}{1}})
	if got != "[ [Array] ]" {
		t.Fatal(got)
	}
}

func TestInspectBreak(t *testing.T) {
	long := strings.Repeat("x", 50)
	got := Inspect([]interface{}{long, long}, false)
	want := "[\n  '" + long + "',\n  '" + long + "'\n]"
	if got != want {
		t.Fatalf("got %q", got)
	}
}

func TestInspectColor(t *testing.T) {
	if got := Inspect(1, true); got != "\x1b[33m1\x1b[39m" {
		t.Fatalf("%q", got)
	}
	if got := Inspect("a", true); got != "\x1b[32m'a'\x1b[39m" {
		t.Fatalf("%q", got)
	}
	if got := Inspect(nil, true); got != "\x1b[1mnull\x1b[22m" {
		t.Fatalf("%q", got)
	}
	if got := StripColors(Inspect([]interface{}{1, "a"}, true)); got != "[ 1, 'a' ]" {
		t.Fatalf("%q", got)
	}
}

func TestFaint(t *testing.T) {
	if got := Faint("satisfies: x", false); got != "satisfies: x" {
		t.Fatal(got)
	}
	if got := Faint("x", true); got != "\x1b[90mx\x1b[39m" {
		t.Fatalf("%q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	for f, want := range map[float64]string{
		0:            "0",
		-3:           "-3",
		0.25:         "0.25",
		1e21:         "1e+21",
		math.Inf(1):  "Infinity",
		math.Inf(-1): "-Infinity",
	} {
		if got := FormatNumber(f); got != want {
			t.Fatalf("%v: %s != %s", f, got, want)
		}
	}
}
