package match

import (
	"math"
	"regexp"
	"testing"
)

type truth struct {
	x    interface{}
	want bool
}

func checkTruth(t *testing.T, p *Predicate, tests ...truth) {
	t.Helper()
	for _, test := range tests {
		if got := p.Test(test.x); got != test.want {
			t.Fatalf("%s(%#v) = %v", p.SpecLabel(), test.x, got)
		}
	}
}

func TestVocabulary(t *testing.T) {
	t.Run("range", func(t *testing.T) {
		checkTruth(t, Range(0, 2),
			truth{0, true}, truth{1, true}, truth{2, true}, truth{1.5, true},
			truth{-1, false}, truth{3, false}, truth{nil, false}, truth{Undefined, false}, truth{"1", false})
	})
	t.Run("ge", func(t *testing.T) {
		checkTruth(t, GE(1), truth{1, true}, truth{2, true}, truth{0, false}, truth{nil, false}, truth{Undefined, false})
	})
	t.Run("gt", func(t *testing.T) {
		checkTruth(t, GT(1), truth{2, true}, truth{1, false}, truth{math.NaN(), false})
	})
	t.Run("lt", func(t *testing.T) {
		checkTruth(t, LT(1), truth{0, true}, truth{1, false}, truth{nil, false})
	})
	t.Run("le", func(t *testing.T) {
		checkTruth(t, LE(1), truth{1, true}, truth{2, false})
	})
	t.Run("zero", func(t *testing.T) {
		checkTruth(t, GTZ(), truth{1, true}, truth{0, false})
		checkTruth(t, GEZ(), truth{0, true}, truth{-1, false})
		checkTruth(t, LTZ(), truth{-1, true}, truth{0, false})
		checkTruth(t, LEZ(), truth{0, true}, truth{1, false})
	})
	t.Run("ne", func(t *testing.T) {
		checkTruth(t, NE(1), truth{2, true}, truth{1.0, false}, truth{"1", true})
		checkTruth(t, NE(Undefined), truth{nil, true}, truth{Undefined, false})
	})
	t.Run("type", func(t *testing.T) {
		checkTruth(t, Type("number"), truth{1, true}, truth{"1", false})
		checkTruth(t, Type("object"), truth{nil, true}, truth{Obj(), true}, truth{[]int{}, true})
		checkTruth(t, Type("undefined"), truth{Undefined, true}, truth{nil, false})
	})
	t.Run("array", func(t *testing.T) {
		checkTruth(t, Array(), truth{[]int{}, true}, truth{[1]string{}, true}, truth{Obj(), false}, truth{nil, false})
	})
	t.Run("arrayElements", func(t *testing.T) {
		checkTruth(t, ArrayElements(2),
			truth{[]int{1, 2}, true}, truth{[]int{1}, false}, truth{nil, false}, truth{"ab", false})
	})
	t.Run("arrayElementsRange", func(t *testing.T) {
		checkTruth(t, ArrayElementsRange(1, 2),
			truth{[]int{1}, true}, truth{[]int{1, 2}, true}, truth{[]int{}, false}, truth{[]int{1, 2, 3}, false}, truth{Undefined, false})
	})
	t.Run("number", func(t *testing.T) {
		checkTruth(t, Number(), truth{1, true}, truth{math.NaN(), false}, truth{"1", false})
	})
	t.Run("string", func(t *testing.T) {
		checkTruth(t, String(), truth{"", true}, truth{1, false}, truth{nil, false})
	})
	t.Run("function", func(t *testing.T) {
		checkTruth(t, Function(), truth{func() {}, true}, truth{GTZ(), true}, truth{1, false})
	})
	t.Run("definedObject", func(t *testing.T) {
		checkTruth(t, DefinedObject(), truth{Obj(), true}, truth{map[string]int{}, true}, truth{nil, false}, truth{1, false})
	})
	t.Run("defined", func(t *testing.T) {
		checkTruth(t, Defined(), truth{0, true}, truth{"", true}, truth{nil, false}, truth{Undefined, false})
		checkTruth(t, NotDefined(), truth{0, false}, truth{nil, true}, truth{Undefined, true})
	})
	t.Run("startsWith", func(t *testing.T) {
		checkTruth(t, StartsWith("hello"), truth{"hello world", true}, truth{"world hello", false}, truth{nil, false}, truth{1, false})
	})
	t.Run("endsWith", func(t *testing.T) {
		checkTruth(t, EndsWith("hello"), truth{"world hello", true}, truth{"hello world", false}, truth{Undefined, false})
	})
	t.Run("test", func(t *testing.T) {
		checkTruth(t, Test(regexp.MustCompile(`hello$`)), truth{"world hello", true}, truth{"hello world", false})
		checkTruth(t, Test(regexp.MustCompile(`^nu`)), truth{nil, true}, truth{42, false})
	})
}

func TestVocabularyLabels(t *testing.T) {
	tests := []struct {
		p           *Predicate
		label, desc string
	}{
		{Range(0, 2), "spok.range(0, 2)", "0 <= value <= 2"},
		{GT(1.5), "spok.gt(1.5)", "value > 1.5"},
		{GEZ(), "spok.gez", "value >= 0"},
		{NE("a"), "spok.ne(a)", "value !== a"},
		{Type("string"), "spok.type(string)", "value is of type string"},
		{ArrayElements(3), "spok.arrayElements(3)", "array has 3 element(s)"},
		{ArrayElementsRange(1, 3), "spok.arrayElementsRange(1, 3)", "array has between 1 and 3 elements"},
		{StartsWith("x"), "spok.startsWith(x)", "string starts with x"},
		{Test(regexp.MustCompile("^a")), "spok.test(/^a/)", "value matches /^a/ regex"},
	}
	for _, test := range tests {
		if test.p.SpecLabel() != test.label {
			t.Fatalf("%s != %s", test.p.SpecLabel(), test.label)
		}
		if test.p.Description != test.desc {
			t.Fatalf("%s != %s", test.p.Description, test.desc)
		}
	}

	if p := Satisfies("", func(x interface{}) bool { return true }); p.SpecLabel() != "" {
		t.Fatal(p.SpecLabel())
	}
	if p := (&Predicate{Fn: IsNull}); p.SpecLabel() != "IsNull" {
		t.Fatal(p.SpecLabel())
	}
}

func TestFuncPredicate(t *testing.T) {
	s, err := Classify(func(s string) bool { return s == "a" })
	if err != nil {
		t.Fatal(err)
	}
	checkTruth(t, s.Pred, truth{"a", true}, truth{"b", false}, truth{1, false}, truth{nil, false}, truth{named("a"), true})

	s, _ = Classify(func(n uint) bool { return n == 2 })
	checkTruth(t, s.Pred, truth{2, true}, truth{2.0, true}, truth{2.5, false}, truth{"2", false})

	s, _ = Classify(func(m map[string]interface{}) bool { return m == nil })
	checkTruth(t, s.Pred, truth{nil, true}, truth{Undefined, true}, truth{map[string]interface{}{}, false})
}
