package tree

// BuildCurrentLevel lists only the files directly inside directory.
// Subdirectories are omitted, not expanded. A directory that cannot be
// listed for lack of permission yields a single locked line; any other
// listing failure is returned.
func (builder *Builder) BuildCurrentLevel(directory string, prefix string) ([]string, error) {
	if builder.isExcluded(directory) {
		return []string{}, nil
	}

	entries, listError := builder.listDirectory(directory)
	if listError != nil {
		if isPermissionError(listError) {
			return []string{permissionLine(prefix, directory)}, nil
		}
		return nil, listError
	}

	files := make([]directoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.regular {
			files = append(files, entry)
		}
	}

	lines := make([]string, 0, len(files))
	for index, entry := range files {
		isLast := index == len(files)-1
		lines = append(lines, builder.fileLine(prefix, connectorFor(isLast), entry))
	}
	return lines, nil
}
