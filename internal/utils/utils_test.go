package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tyemirov/loctree/internal/utils"
)

// textFileName defines the name of the text file used in tests.
const textFileName = "sample.txt"

// TestDeduplicatePatterns verifies that DeduplicatePatterns removes duplicate and blank patterns.
func TestDeduplicatePatterns(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		patterns []string
		expected []string
	}{
		{
			testName: "removes duplicates",
			patterns: []string{"a", "b", "a"},
			expected: []string{"a", "b"},
		},
		{
			testName: "keeps unique",
			patterns: []string{"a", "b"},
			expected: []string{"a", "b"},
		},
		{
			testName: "drops blanks and trims",
			patterns: []string{" vendor ", "", "vendor", "  "},
			expected: []string{"vendor"},
		},
	}
	for index, testCase := range testCases {
		actual := utils.DeduplicatePatterns(testCase.patterns)
		if len(actual) != len(testCase.expected) {
			testingInstance.Errorf("case %d (%s): expected length %d, got %d", index, testCase.testName, len(testCase.expected), len(actual))
			continue
		}
		for position, value := range actual {
			if value != testCase.expected[position] {
				testingInstance.Errorf("case %d (%s): expected %s at position %d, got %s", index, testCase.testName, testCase.expected[position], position, value)
			}
		}
	}
}

// TestRelativePathOrSelf verifies relative path calculations.
func TestRelativePathOrSelf(testingInstance *testing.T) {
	temporaryRoot := testingInstance.TempDir()
	subPath := filepath.Join(temporaryRoot, textFileName)
	creationError := os.WriteFile(subPath, []byte("content"), 0600)
	if creationError != nil {
		testingInstance.Fatalf("failed to create file: %v", creationError)
	}
	testCases := []struct {
		testName string
		fullPath string
		root     string
		expected string
	}{
		{
			testName: "root path returns dot",
			fullPath: temporaryRoot,
			root:     temporaryRoot,
			expected: ".",
		},
		{
			testName: "sub path returns relative",
			fullPath: subPath,
			root:     temporaryRoot,
			expected: textFileName,
		},
		{
			testName: "sibling path escapes root",
			fullPath: filepath.Dir(temporaryRoot),
			root:     temporaryRoot,
			expected: "..",
		},
	}
	for index, testCase := range testCases {
		actual := utils.RelativePathOrSelf(testCase.fullPath, testCase.root)
		if actual != testCase.expected {
			testingInstance.Errorf("case %d (%s): expected %s, got %s", index, testCase.testName, testCase.expected, actual)
		}
	}
}

// TestIsOutsideRoot verifies detection of paths escaping the root.
func TestIsOutsideRoot(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		relative string
		expected bool
	}{
		{testName: "self", relative: ".", expected: false},
		{testName: "child", relative: "a/b", expected: false},
		{testName: "dotted child", relative: "..hidden", expected: false},
		{testName: "parent", relative: "..", expected: true},
		{testName: "parent child", relative: "../x", expected: true},
	}
	for index, testCase := range testCases {
		actual := utils.IsOutsideRoot(testCase.relative)
		if actual != testCase.expected {
			testingInstance.Errorf("case %d (%s): expected %t, got %t", index, testCase.testName, testCase.expected, actual)
		}
	}
}

// TestSplitRelativePath verifies segment splitting.
func TestSplitRelativePath(testingInstance *testing.T) {
	if segments := utils.SplitRelativePath("."); segments != nil {
		testingInstance.Errorf("expected nil segments for root, got %v", segments)
	}
	segments := utils.SplitRelativePath("src/internal/app.go")
	if len(segments) != 3 || segments[2] != "app.go" {
		testingInstance.Errorf("unexpected segments %v", segments)
	}
}
