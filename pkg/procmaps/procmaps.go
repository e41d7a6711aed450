// Package procmaps parses a process's memory mappings from procfs,
// giving callers the address ranges that are safe to hand to a remote
// memory read.
package procmaps

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Range is one mapped region of a process's address space.
type Range struct {
	Start    uint64
	End      uint64
	Perm     string
	Offset   uint64
	Dev      string
	Inode    uint64
	Filename string
}

func (r *Range) Size() uint64 {
	return r.End - r.Start
}

func (r *Range) IsRead() bool {
	return r.Perm[0] == 'r'
}

func (r *Range) IsWrite() bool {
	return r.Perm[1] == 'w'
}

func (r *Range) IsExe() bool {
	return r.Perm[2] == 'x'
}

// Contains reports whether addr falls inside the range.
func (r *Range) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// ReadProcMaps returns the mappings of pid, in file order.
func ReadProcMaps(pid int) ([]Range, error) {
	return parseProcMaps(fmt.Sprintf("/proc/%d/maps", pid))
}

func parseProcMaps(path string) ([]Range, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	result := make([]Range, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		r, err := parseLine(scanner.Text())
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func parseLine(line string) (Range, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 && len(fields) != 6 {
		return Range{}, fmt.Errorf("invalid map range: %s", line)
	}
	addrs := strings.SplitN(fields[0], "-", 2)
	if len(addrs) != 2 {
		return Range{}, fmt.Errorf("invalid address range: %s", fields[0])
	}
	start, err := strconv.ParseUint(addrs[0], 16, 64)
	if err != nil {
		return Range{}, err
	}
	end, err := strconv.ParseUint(addrs[1], 16, 64)
	if err != nil {
		return Range{}, err
	}
	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return Range{}, err
	}
	inode, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return Range{}, err
	}
	filename := ""
	if len(fields) == 6 {
		filename = fields[5]
	}
	return Range{
		Start:    start,
		End:      end,
		Perm:     fields[1],
		Offset:   offset,
		Dev:      fields[3],
		Inode:    inode,
		Filename: filename,
	}, nil
}
