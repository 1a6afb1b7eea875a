package testutil

import (
	"reflect"
	"testing"

	"github.com/Comcast/spok/match"
)

type Person struct {
	Name string
	Age  int
}

func TestJS(t *testing.T) {
	tests := []struct {
		name string
		arg  interface{}
		want string
	}{
		{
			name: "simple struct",
			arg:  Person{"John Doe", 30},
			want: `{"Name":"John Doe","Age":30}`,
		},
		{
			name: "ordered object",
			arg:  match.Obj("b", 1, "a", 2),
			want: `{"b":1,"a":2}`,
		},
		{
			name: "undefined",
			arg:  []interface{}{match.Undefined},
			want: `[null]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JS(tt.arg); got != tt.want {
				t.Errorf("JS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDwimjs(t *testing.T) {
	tests := []struct {
		name string
		arg  interface{}
		want interface{}
	}{
		{
			name: "object keeps its order",
			arg:  `{"name":"John Doe","age":30}`,
			want: match.Obj("name", "John Doe", "age", float64(30)),
		},
		{
			name: "bytes with whitespace",
			arg:  []byte(" [1, {\"b\":2,\"a\":1}]\n"),
			want: []interface{}{float64(1), match.Obj("b", float64(2), "a", float64(1))},
		},
		{
			name: "non-JSON string",
			arg:  "hello world",
			want: "hello world",
		},
		{
			name: "trailing garbage",
			arg:  `{"a":1} x`,
			want: `{"a":1} x`,
		},
		{
			name: "non-string, non-byte-slice type",
			arg:  12345,
			want: 12345,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dwimjs(tt.arg); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Dwimjs() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		name string
		arg  interface{}
		want string
		err  bool
	}{
		{
			name: "ordered object",
			arg:  match.Obj("likes", "tacos", "n", 1),
			want: "{\"likes\":\"tacos\",\"n\":1}\n",
		},
		{
			name: "string as is",
			arg:  ` {"likes":"chips"}` + "\n",
			want: "{\"likes\":\"chips\"}\n",
		},
		{
			name: "two lines",
			arg:  "{}\n{}",
			err:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Line(tt.arg)
			if tt.err {
				if err == nil {
					t.Errorf("Line() = %q, wanted an error", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}
