package media

import (
	"testing"

	"github.com/spf13/afero"
)

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()

	if err := WriteFileAtomic(fs, "/thumbs/2019/a.jpg", []byte("first")); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	if err := WriteFileAtomic(fs, "/thumbs/2019/a.jpg", []byte("second")); err != nil {
		t.Fatalf("WriteFileAtomic() replace error = %v", err)
	}

	data, err := afero.ReadFile(fs, "/thumbs/2019/a.jpg")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	entries, err := afero.ReadDir(fs, "/thumbs/2019")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory holds %v, want only a.jpg", names)
	}
}

func TestWriteFileAtomicReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	if err := WriteFileAtomic(fs, "/thumbs/a.jpg", []byte("x")); err == nil {
		t.Error("WriteFileAtomic() on read-only fs error = nil")
	}
}
