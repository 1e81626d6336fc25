package renderer

import (
	"reflect"
	"testing"
)

func TestAppendTags(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   []any
		want []string
	}{
		{"list", []any{[]any{"go", "docs"}}, []string{"go", "docs"}},
		{"comma string", []any{"go, docs ,"}, []string{"go", "docs"}},
		{"duplicates across keys", []any{[]any{"Go"}, "go,markdown"}, []string{"Go", "markdown"}},
		{"scalars", []any{[]any{2024, true}}, []string{"2024", "true"}},
		{"missing", []any{nil}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got []string
			for _, v := range tt.in {
				got = appendTags(got, v)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("appendTags = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFirstScalar(t *testing.T) {
	t.Parallel()
	raw := map[string]any{"summary": "  short  ", "title": 2024}
	if got := firstScalar(raw, titleKeys); got != "2024" {
		t.Fatalf("title = %q", got)
	}
	if got := firstScalar(raw, descriptionKeys); got != "short" {
		t.Fatalf("description = %q", got)
	}
	if got := firstScalar(map[string]any{"title": []any{"x"}}, titleKeys); got != "" {
		t.Fatalf("non-scalar title = %q", got)
	}
}
