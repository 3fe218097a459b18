package playlist

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/backmassage/hlsgrab/internal/config"
)

func TestRead_CSV(t *testing.T) {
	in := strings.Join([]string{
		"# channels",
		"News-1,http://a/1.m3u8",
		"",
		"  Sports , http://a/2.m3u8?x=1,y=2  ",
		"no comma here",
		"Empty,",
		"央视综合,https://c/3.m3u8",
	}, "\n")

	list, err := Read(strings.NewReader(in), config.InputCSV)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []Entry{
		{"News-1", "http://a/1.m3u8"},
		{"Sports", "http://a/2.m3u8?x=1,y=2"},
		{"央视综合", "https://c/3.m3u8"},
	}
	if !reflect.DeepEqual(list.Entries, want) {
		t.Errorf("Entries = %+v\nwant %+v", list.Entries, want)
	}
	if list.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", list.Skipped)
	}
	if list.Format != config.InputCSV {
		t.Errorf("Format = %q", list.Format)
	}
}

func TestRead_M3U(t *testing.T) {
	in := strings.Join([]string{
		"#EXTM3U x-tvg-url=\"http://epg\"",
		`#EXTINF:-1 tvg-id="a" group-title="News",CCTV-1`,
		"http://a/1.m3u8",
		"#EXT-X-APP something",
		`#EXTINF:-1 tvg-name="x,y",Lonely`,
		"https://a/2.m3u8",
		`#EXTINF:-1 group-title="Sports",`,
		"http://a/3.m3u8",
		`#EXTINF:-1 group-title="Dropped",NoURL`,
		`#EXTINF:-1 group-title="Movies",Film`,
		"rtmp://not-http/4",
		"http://orphan/5.m3u8",
	}, "\n")

	list, err := Read(strings.NewReader(in), config.InputM3U)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []Entry{
		{"News-CCTV-1", "http://a/1.m3u8"},
		{DefaultGroup + "-Lonely", "https://a/2.m3u8"},
		{"Sports-" + DefaultTitle, "http://a/3.m3u8"},
		{"Movies-Film", "http://orphan/5.m3u8"},
	}
	if !reflect.DeepEqual(list.Entries, want) {
		t.Errorf("Entries = %+v\nwant %+v", list.Entries, want)
	}
	// NoURL title replaced, rtmp line unusable.
	if list.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", list.Skipped)
	}
}

func TestRead_M3UOrphanURLAndTrailingTitle(t *testing.T) {
	in := "#EXTM3U\nhttp://orphan/1\n#EXTINF:-1,Last\n"
	list, err := Read(strings.NewReader(in), config.InputM3U)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Entries) != 0 {
		t.Errorf("Entries = %+v, want none", list.Entries)
	}
	if list.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", list.Skipped)
	}
}

func TestRead_AutoSniff(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want config.InputFormat
	}{
		{"m3u header", "\n#EXTM3U\n#EXTINF:-1,A\nhttp://a\n", config.InputM3U},
		{"bom and header", "\ufeff#EXTM3U\n", config.InputM3U},
		{"extinf without header", "# list\n#EXTINF:-1,A\nhttp://a\n", config.InputM3U},
		{"csv", "A,http://a\nB,http://b\n", config.InputCSV},
		{"empty", "", config.InputCSV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := Read(strings.NewReader(tt.in), config.InputAuto)
			if err != nil {
				t.Fatal(err)
			}
			if list.Format != tt.want {
				t.Errorf("Format = %q, want %q", list.Format, tt.want)
			}
		})
	}
}

func TestRead_UnknownFormat(t *testing.T) {
	if _, err := Read(strings.NewReader("A,http://a"), config.InputFormat("xml")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	if err := os.WriteFile(path, []byte("A,http://a/1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	list, err := Load(path, config.InputAuto)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(list.Entries) != 1 || list.Entries[0].Name != "A" {
		t.Errorf("Entries = %+v", list.Entries)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.m3u"), config.InputAuto)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load error = %v, want ErrNotExist", err)
	}
}
