package candidates

import (
	"os"
	"reflect"
	"regexp"
	"testing"
	"time"

	"thumbnailer/internal/mediatypes"

	"github.com/spf13/afero"
)

// denyOpenFs refuses to open the listed paths while still reporting them
// in stat calls, like a file with restrictive permissions.
type denyOpenFs struct {
	afero.Fs
	deny map[string]bool
}

func (d denyOpenFs) Open(name string) (afero.File, error) {
	if d.deny[name] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.Open(name)
}

func (d denyOpenFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if d.deny[name] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.OpenFile(name, flag, perm)
}

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func record(path string, size int64) mediatypes.FileRecord {
	dir, name := splitPath(path)
	rel := ""
	if dir != "/store" {
		rel = dir[len("/store/"):]
	}
	return mediatypes.FileRecord{
		SourcePath: path,
		Name:       name,
		Extension:  mediatypes.ExtensionOf(name),
		RelDir:     rel,
		Size:       size,
		ModTime:    epoch,
	}
}

func splitPath(p string) (string, string) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[:i], p[i+1:]
		}
	}
	return "", p
}

func baseOptions() Options {
	return Options{
		StoreRoot:     "/store",
		ThumbnailsDir: "/store/_thumbs",
		Extensions:    mediatypes.NewExtensionSet(mediatypes.DefaultFileTypes),
		Keep:          regexp.MustCompile(`/[a-zA-Z0-9][^/]+$`),
		OutputFormat:  "jpg",
		RawSuffix:     "-raw",
		MasterSuffix:  "-master",
	}
}

var profile800 = mediatypes.Profile{Name: "800", Width: 800, Height: 800, Dir: "/store/_thumbs"}

func setup(t *testing.T, fs afero.Fs, paths ...string) []mediatypes.FileRecord {
	t.Helper()
	var records []mediatypes.FileRecord
	for _, p := range paths {
		if err := afero.WriteFile(fs, p, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", p, err)
		}
		if p[:len("/store/")] == "/store/" {
			records = append(records, record(p, 500*1024))
		}
	}
	return records
}

func candidatePaths(sel Selection) []string {
	out := []string{}
	for _, c := range sel.Candidates {
		out = append(out, c.SourcePath)
	}
	return out
}

func TestSelectExcludesThumbnailsTreeAndExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := setup(t, fs, "/store/a.jpg", "/store/_thumbs/a.jpg")

	sel := New(fs, baseOptions()).Select(files, profile800)

	if len(sel.Candidates) != 0 {
		t.Fatalf("Candidates = %v, want none", candidatePaths(sel))
	}
	if sel.Excluded[ReasonThumbnails] != 1 {
		t.Errorf("thumbnails tree exclusions = %d, want 1", sel.Excluded[ReasonThumbnails])
	}
	if sel.Excluded[ReasonThumbnailed] != 1 {
		t.Errorf("already thumbnailed exclusions = %d, want 1", sel.Excluded[ReasonThumbnailed])
	}
	if sel.Total() != 2 {
		t.Errorf("Total() = %d, want 2", sel.Total())
	}
}

func TestSelectDestinationAndOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := setup(t, fs, "/store/z.jpg", "/store/2019/b.tif", "/store/a.jpeg")

	sel := New(fs, baseOptions()).Select(files, profile800)

	want := []string{"/store/2019/b.tif", "/store/a.jpeg", "/store/z.jpg"}
	if got := candidatePaths(sel); !reflect.DeepEqual(got, want) {
		t.Fatalf("Candidates = %v, want %v", got, want)
	}
	if sel.Candidates[0].Destination != "/store/_thumbs/2019/b.jpg" {
		t.Errorf("Destination = %q", sel.Candidates[0].Destination)
	}
}

func TestSelectRules(t *testing.T) {
	tests := []struct {
		name   string
		opts   func(*Options)
		paths  []string
		want   []string
		reason Reason
	}{
		{
			name:   "extension not allowed",
			paths:  []string{"/store/notes.txt", "/store/a.jpg"},
			want:   []string{"/store/a.jpg"},
			reason: ReasonExtension,
		},
		{
			name:   "name must start alphanumeric",
			paths:  []string{"/store/._a.jpg", "/store/a.jpg"},
			want:   []string{"/store/a.jpg"},
			reason: ReasonName,
		},
		{
			name:   "raw dropped when master exists",
			paths:  []string{"/store/x-raw.tif", "/store/x-master.tif"},
			want:   []string{"/store/x-master.tif"},
			reason: ReasonRawDuplicate,
		},
		{
			name:  "raw kept without master",
			paths: []string{"/store/x-raw.tif", "/store/y-master.tif"},
			want:  []string{"/store/x-raw.tif", "/store/y-master.tif"},
		},
		{
			name:  "raw kept in allowed folder",
			opts:  func(o *Options) { o.RawAllowedFolders = []string{"scans"} },
			paths: []string{"/store/scans/x-raw.tif", "/store/scans/x-master.tif"},
			want:  []string{"/store/scans/x-master.tif", "/store/scans/x-raw.tif"},
		},
		{
			name:   "allowed folder does not match sibling prefix",
			opts:   func(o *Options) { o.RawAllowedFolders = []string{"scans"} },
			paths:  []string{"/store/scans2/x-raw.tif", "/store/scans2/x-master.tif"},
			want:   []string{"/store/scans2/x-master.tif"},
			reason: ReasonRawDuplicate,
		},
		{
			name:   "known problem relative",
			opts:   func(o *Options) { o.KnownProblemFiles = []string{"2019/bad.jpg"} },
			paths:  []string{"/store/2019/bad.jpg", "/store/2019/good.jpg"},
			want:   []string{"/store/2019/good.jpg"},
			reason: ReasonKnownProblem,
		},
		{
			name:   "known problem absolute",
			opts:   func(o *Options) { o.KnownProblemFiles = []string{"/store/bad.jpg"} },
			paths:  []string{"/store/bad.jpg"},
			want:   []string{},
			reason: ReasonKnownProblem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			files := setup(t, fs, tt.paths...)
			opts := baseOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}

			sel := New(fs, opts).Select(files, profile800)

			if got := candidatePaths(sel); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates = %v, want %v", got, tt.want)
			}
			if tt.reason != "" && sel.Excluded[tt.reason] != 1 {
				t.Errorf("Excluded[%s] = %d, want 1 (all: %v)", tt.reason, sel.Excluded[tt.reason], sel.Excluded)
			}
		})
	}
}

func TestSelectUnreadable(t *testing.T) {
	base := afero.NewMemMapFs()
	files := setup(t, base, "/store/locked.jpg", "/store/open.jpg")
	fs := denyOpenFs{Fs: base, deny: map[string]bool{"/store/locked.jpg": true}}

	sel := New(fs, baseOptions()).Select(files, profile800)

	if got := candidatePaths(sel); !reflect.DeepEqual(got, []string{"/store/open.jpg"}) {
		t.Errorf("Candidates = %v", got)
	}
	if !reflect.DeepEqual(sel.Unreadable, []string{"/store/locked.jpg"}) {
		t.Errorf("Unreadable = %v", sel.Unreadable)
	}
}

func TestSelectVanished(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := []mediatypes.FileRecord{record("/store/gone.jpg", 10)}

	sel := New(fs, baseOptions()).Select(files, profile800)

	if len(sel.Candidates) != 0 || sel.Excluded[ReasonVanished] != 1 {
		t.Errorf("Select() = %+v, want one vanished exclusion", sel)
	}
	if len(sel.Unreadable) != 0 {
		t.Errorf("Unreadable = %v, want empty", sel.Unreadable)
	}
}

func TestSelectOverwriteOlder(t *testing.T) {
	for _, overwrite := range []bool{false, true} {
		fs := afero.NewMemMapFs()
		files := setup(t, fs, "/store/a.jpg", "/store/_thumbs/a.jpg")
		if err := fs.Chtimes("/store/_thumbs/a.jpg", epoch.Add(-time.Hour), epoch.Add(-time.Hour)); err != nil {
			t.Fatal(err)
		}
		opts := baseOptions()
		opts.OverwriteOlder = overwrite

		sel := New(fs, opts).Select(files[:1], profile800)

		if got := len(sel.Candidates) == 1; got != overwrite {
			t.Errorf("OverwriteOlder=%v selected=%v", overwrite, got)
		}
	}
}

func TestSelectSeparateProfileDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := setup(t, fs, "/store/a.jpg", "/store/_thumbs/a.jpg")
	small := mediatypes.Profile{Name: "200", Width: 200, Height: 200, Dir: "/store/_thumbs/200"}

	sel := New(fs, baseOptions()).Select(files, small)

	if got := candidatePaths(sel); !reflect.DeepEqual(got, []string{"/store/a.jpg"}) {
		t.Fatalf("Candidates = %v", got)
	}
	if sel.Candidates[0].Destination != "/store/_thumbs/200/a.jpg" {
		t.Errorf("Destination = %q", sel.Candidates[0].Destination)
	}
}

func TestMasterSibling(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/s/x-raw.tif", "/s/x-master.tif"},
		{"/s/x-RAW.tif", ""},
		{"/s/-raw.tif", ""},
		{"/s/x-master.tif", ""},
		{"/s/x-raw", ""},
	}
	for _, tt := range tests {
		if got := MasterSibling(tt.path, "-raw", "-master"); got != tt.want {
			t.Errorf("MasterSibling(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
	if got := MasterSibling("/s/x-raw.tif", "", "-master"); got != "" {
		t.Errorf("empty raw suffix = %q, want empty", got)
	}
}
