package binding

import "testing"

func TestInterpolate(t *testing.T) {
	data := map[string]any{
		"author": map[string]any{
			"name":  "Ann Lee",
			"title": "My Story",
		},
		"year": 2026,
		"chapters": []any{
			map[string]any{"title": "Origins"},
			map[string]any{"title": "Return"},
		},
	}

	cases := []struct {
		in   string
		want string
	}{
		{"by ${author.name}", "by Ann Lee"},
		{"${author.title} (${year})", "My Story (2026)"},
		{"${ author.name }", "Ann Lee"},
		{"${missing.path}", "${missing.path}"},
		{"${author.name.deeper}", "${author.name.deeper}"},
		{"no placeholders", "no placeholders"},
		{"${}", "${}"},
		{"${chapters[0].title}", "Origins"},
		{"${chapters[1].title}", "Return"},
		{"${chapters[2].title}", "${chapters[2].title}"},
		{"${chapters[x].title}", "${chapters[x].title}"},
		{"${author[0]}", "${author[0]}"},
	}
	for _, c := range cases {
		if got := Interpolate(c.in, data); got != c.want {
			t.Fatalf("Interpolate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestInterpolateNilData(t *testing.T) {
	in := "by ${author.name}"
	if got := Interpolate(in, nil); got != in {
		t.Fatalf("空数据应原样返回: %q", got)
	}
}
