package procmaps

import (
	"testing"
)

func TestParseProcMaps(t *testing.T) {
	ranges, err := parseProcMaps("testdata/maps")
	if err != nil {
		t.Fatal(err)
	}
	want := []Range{
		{Start: 0x400000, End: 0x005af000,
			Perm: "r-xp", Offset: 0x00000000,
			Dev: "103:02", Inode: 5789181, Filename: "/bin/snet"},
		{Start: 0x7fa392342000, End: 0x7fa392343000,
			Perm: "rw-p", Offset: 0x28000, Dev: "103:02", Inode: 12980870,
			Filename: "/lib/x86_64-linux-gnu/ld-2.27.so"},
		{Start: 0x7fa392343000, End: 0x7fa392344000, Perm: "rw-p",
			Offset: 0x00000000, Dev: "00:00", Inode: 0, Filename: ""},
		{Start: 0xffffffffff600000, End: 0xffffffffff601000, Perm: "r-xp",
			Offset: 0x00000000, Dev: "00:00", Inode: 0, Filename: "[vsyscall]"},
	}
	if len(ranges) != len(want) {
		t.Fatalf("got %d ranges, want %d", len(ranges), len(want))
	}
	for i, rng := range ranges {
		if rng != want[i] {
			t.Errorf("range %d: got %+v, want %+v", i, rng, want[i])
		}
	}
}

func TestRangeHelpers(t *testing.T) {
	r := Range{Start: 0x1000, End: 0x3000, Perm: "r-xp"}
	if r.Size() != 0x2000 {
		t.Errorf("Size() = %#x, want 0x2000", r.Size())
	}
	if !r.IsRead() || r.IsWrite() || !r.IsExe() {
		t.Errorf("permission helpers disagree with %q", r.Perm)
	}
	if !r.Contains(0x1000) || !r.Contains(0x2fff) || r.Contains(0x3000) {
		t.Error("Contains disagrees with range bounds")
	}
}

func TestParseLineInvalid(t *testing.T) {
	for _, line := range []string{
		"not a maps line",
		"zzzz-0000 r-xp 0 00:00 0",
	} {
		if _, err := parseLine(line); err == nil {
			t.Errorf("parseLine(%q) succeeded, want error", line)
		}
	}
}
