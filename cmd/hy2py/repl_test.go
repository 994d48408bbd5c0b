package main

import (
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func Test_CompleteMacro_Prefix(t *testing.T) {
	names := []string{"when", "while-true", "unless", "->"}
	head, got, tail := completeMacro(names, "(print (wh x)", 10)
	if head != "(print (" || tail != " x)" {
		t.Fatalf("head %q tail %q", head, tail)
	}
	if want := []string{"when", "while-true"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %s", spew.Sdump(got))
	}
}

func Test_CompleteMacro_RuneOffset(t *testing.T) {
	head, got, _ := completeMacro([]string{"->"}, "(λ -", 4)
	if head != "(λ " || !reflect.DeepEqual(got, []string{"->"}) {
		t.Fatalf("head %q, got %s", head, spew.Sdump(got))
	}
}
