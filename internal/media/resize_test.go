package media

import (
	"testing"

	"thumbnailer/internal/mediatypes"

	"github.com/spf13/afero"
)

func TestResizeTarget(t *testing.T) {
	box := mediatypes.Profile{Name: "800", Width: 800, Height: 600}

	tests := []struct {
		name       string
		dims       Dimensions
		wantWidth  int
		wantHeight int
	}{
		{"landscape fixes width", Dimensions{4000, 3000}, 800, 0},
		{"portrait fixes height", Dimensions{3000, 4000}, 0, 600},
		{"square fixes width", Dimensions{1000, 1000}, 800, 0},
		{"small landscape", Dimensions{200, 100}, 800, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ResizeTarget(tt.dims, box)
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("ResizeTarget() = (%d, %d), want (%d, %d)", w, h, tt.wantWidth, tt.wantHeight)
			}
			if (w == 0) == (h == 0) {
				t.Errorf("exactly one of width/height must be set, got (%d, %d)", w, h)
			}
		})
	}
}

func TestNewResizer(t *testing.T) {
	fs := afero.NewMemMapFs()

	r, err := NewResizer("", fs, 0)
	if err != nil {
		t.Fatalf("NewResizer(\"\") error = %v", err)
	}
	ir, ok := r.(*ImagingResizer)
	if !ok {
		t.Fatalf("NewResizer(\"\") = %T, want *ImagingResizer", r)
	}
	if ir.quality != DefaultJPEGQuality {
		t.Errorf("quality = %d, want default %d", ir.quality, DefaultJPEGQuality)
	}

	if r, err := NewResizer("Imaging", fs, 75); err != nil || r.Name() != BackendImaging {
		t.Errorf("NewResizer(Imaging) = %v, %v", r, err)
	}

	if _, err := NewResizer("magick", fs, 90); err == nil {
		t.Error("NewResizer(magick) error = nil, want unknown backend")
	}
}
