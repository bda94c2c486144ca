package procutil

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// parseStat extracts pid and ppid from the contents of /proc/<pid>/stat. The
// command field is parenthesised and may itself contain spaces or parens, so
// parsing resumes after the last closing paren.
func parseStat(data []byte) (pid, ppid int, err error) {
	open := bytes.IndexByte(data, '(')
	end := bytes.LastIndexByte(data, ')')
	if open <= 0 || end < open {
		return 0, 0, errors.New("malformed stat: missing command field")
	}
	pid, err = strconv.Atoi(string(bytes.TrimSpace(data[:open])))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed stat pid: %w", err)
	}
	fields := bytes.Fields(data[end+1:])
	if len(fields) < 2 {
		return 0, 0, errors.New("malformed stat: missing ppid")
	}
	ppid, err = strconv.Atoi(string(fields[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed stat ppid: %w", err)
	}
	return pid, ppid, nil
}

// collectDescendants walks a pid->ppid table breadth first and returns every
// descendant of root, children before grandchildren.
func collectDescendants(root int, parents map[int]int) []int {
	children := make(map[int][]int, len(parents))
	for pid, ppid := range parents {
		children[ppid] = append(children[ppid], pid)
	}
	var out []int
	seen := map[int]struct{}{root: {}}
	queue := []int{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}
