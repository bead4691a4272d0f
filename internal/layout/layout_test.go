package layout

import "testing"

func TestDetect(t *testing.T) {
	roots := []string{"archive", "bin", "red4ext", "r6", "mods"}

	tt := []struct {
		name  string
		paths []string
		want  Kind
	}{
		{
			name:  "standard",
			paths: []string{"archive/pc/mod/cool.archive", "r6/scripts/cool.reds"},
			want:  Standard,
		},
		{
			name:  "wrapped",
			paths: []string{"MyModWrapper/archive/pc/mod/cool.archive", "MyModWrapper/readme.txt"},
			want:  Wrapped,
		},
		{
			name:  "fomod",
			paths: []string{"fomod/ModuleConfig.xml", "fomod/info.xml", "data/whatever.archive"},
			want:  Fomod,
		},
		{
			name:  "unknown",
			paths: []string{"readme.txt", "somefolder/whatever.bin"},
			want:  Unknown,
		},
		{
			name:  "case insensitive and backslash normalised",
			paths: []string{`Archive\PC\Mod\Cool.archive`},
			want:  Standard,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := Detect(tc.paths, roots)
			if got.Kind != tc.want {
				t.Errorf("Detect(%v) = %v, want %v", tc.paths, got.Kind, tc.want)
			}
		})
	}
}

func TestDetectWrappedStripPrefix(t *testing.T) {
	roots := []string{"archive", "bin", "red4ext", "r6", "mods"}
	got := Detect([]string{"Wrapper/r6/scripts/a.reds"}, roots)
	if got.Kind != Wrapped || got.StripPrefix != "wrapper" {
		t.Errorf("got %+v", got)
	}
}
