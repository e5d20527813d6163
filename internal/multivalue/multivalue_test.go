package multivalue

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStrings(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"null", "null", nil},
		{"json array", `["Provinsi", " Kabupaten ", ""]`, []string{"Provinsi", "Kabupaten"}},
		{"json numbers", `[1, 2]`, []string{"1", "2"}},
		{"json string", `"Pusat"`, []string{"Pusat"}},
		{"json string with csv", `"a,b"`, []string{"a", "b"}},
		{"csv", "a, b,,c", []string{"a", "b", "c"}},
		{"scalar", "7", []string{"7"}},
		{"broken json falls back to csv", `["a", "b"`, []string{`["a"`, `"b"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Strings(tt.raw)); diff != "" {
				t.Errorf("Strings(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestIDs(t *testing.T) {
	tests := []struct {
		raw  string
		want []int64
	}{
		{`[3, "5", 3]`, []int64{3, 5}},
		{"1,2,x,-4,0", []int64{1, 2}},
		{"9", []int64{9}},
		{"", nil},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, IDs(tt.raw)); diff != "" {
			t.Errorf("IDs(%q) mismatch (-want +got):\n%s", tt.raw, diff)
		}
	}
}

func TestIDsFromValues(t *testing.T) {
	got := IDsFromValues([]string{"1", "[2,3]", "3,4"})
	if diff := cmp.Diff([]int64{1, 2, 3, 4}, got); diff != "" {
		t.Errorf("IDsFromValues mismatch (-want +got):\n%s", diff)
	}
}

func TestFiles(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []File
	}{
		{"empty", "", nil},
		{
			"objects",
			`[{"originalname":"foto.jpg","path":"uploads/prioritas/1_foto.jpg","size":12},{"path":""}]`,
			[]File{{Name: "foto.jpg", Path: "uploads/prioritas/1_foto.jpg", Size: 12}},
		},
		{
			"single object",
			`{"filename":"a.pdf","path":"uploads/a.pdf"}`,
			[]File{{Name: "a.pdf", Path: "uploads/a.pdf"}},
		},
		{
			"array of paths",
			`["uploads\\x\\b.doc"]`,
			[]File{{Name: "b.doc", Path: "uploads/x/b.doc"}},
		},
		{
			"csv of paths",
			"uploads/a.pdf,uploads/b.pdf",
			[]File{{Name: "a.pdf", Path: "uploads/a.pdf"}, {Name: "b.pdf", Path: "uploads/b.pdf"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Files(tt.raw)); diff != "" {
				t.Errorf("Files mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
