package tree

import "os"

// treeFrame is one directory level awaiting rendering.
type treeFrame struct {
	directory string
	prefix    string
	entries   []directoryEntry
	position  int
	info      os.FileInfo
}

// BuildTree renders the entire subtree rooted at directory. At every level
// files come first, then directories, each group sorted by name. Traversal
// keeps its own stack, so nesting depth is bounded by memory rather than
// by the goroutine stack.
func (builder *Builder) BuildTree(directory string, prefix string) ([]string, error) {
	if builder.isExcluded(directory) {
		return []string{}, nil
	}

	rootEntries, listError := builder.listDirectory(directory)
	if listError != nil {
		if isPermissionError(listError) {
			return []string{permissionLine(prefix, directory)}, nil
		}
		return nil, listError
	}

	rootFrame := &treeFrame{
		directory: directory,
		prefix:    prefix,
		entries:   orderEntries(rootEntries),
	}
	if rootInfo, statError := builder.filesystem().Stat(directory); statError == nil {
		rootFrame.info = rootInfo
	}

	lines := []string{}
	stack := []*treeFrame{rootFrame}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		if frame.position >= len(frame.entries) {
			stack = stack[:len(stack)-1]
			continue
		}

		entry := frame.entries[frame.position]
		frame.position++
		isLast := frame.position == len(frame.entries)
		connector := connectorFor(isLast)

		if !entry.isDir {
			lines = append(lines, builder.fileLine(frame.prefix, connector, entry))
			continue
		}

		lines = append(lines, directoryLine(frame.prefix, connector, entry.name))
		nestedPrefix := childPrefix(frame.prefix, isLast)

		if revisitsAncestor(stack, entry.info) {
			lines = append(lines, loopLine(nestedPrefix, entry.name))
			continue
		}

		childEntries, childError := builder.listDirectory(entry.path)
		if childError != nil {
			if isPermissionError(childError) {
				lines = append(lines, permissionLine(nestedPrefix, entry.path))
				continue
			}
			return nil, childError
		}

		stack = append(stack, &treeFrame{
			directory: entry.path,
			prefix:    nestedPrefix,
			entries:   orderEntries(childEntries),
			info:      entry.info,
		})
	}
	return lines, nil
}

// revisitsAncestor reports whether info names a directory already open on the stack.
func revisitsAncestor(stack []*treeFrame, info os.FileInfo) bool {
	if info == nil {
		return false
	}
	for _, frame := range stack {
		if frame.info != nil && os.SameFile(frame.info, info) {
			return true
		}
	}
	return false
}
