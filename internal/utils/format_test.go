package utils_test

import (
	"testing"

	"github.com/tyemirov/loctree/internal/utils"
)

func TestFormatFileSize(t *testing.T) {
	testCases := []struct {
		name     string
		bytes    int64
		expected string
	}{
		{name: "negative", bytes: -1, expected: "0b"},
		{name: "zero", bytes: 0, expected: "0b"},
		{name: "bytes", bytes: 512, expected: "512b"},
		{name: "one kilobyte", bytes: 1024, expected: "1kb"},
		{name: "fractional kilobyte", bytes: 1536, expected: "1.5kb"},
		{name: "ten megabytes", bytes: 10 * 1024 * 1024, expected: "10mb"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result := utils.FormatFileSize(testCase.bytes)
			if result != testCase.expected {
				t.Fatalf("expected %s, got %s", testCase.expected, result)
			}
		})
	}
}

func TestFormatCount(t *testing.T) {
	testCases := []struct {
		name     string
		count    int
		expected string
	}{
		{name: "zero", count: 0, expected: "0"},
		{name: "hundreds", count: 999, expected: "999"},
		{name: "thousand", count: 1000, expected: "1,000"},
		{name: "uneven_group", count: 12345, expected: "12,345"},
		{name: "millions", count: 1234567, expected: "1,234,567"},
		{name: "negative", count: -1200, expected: "-1200"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result := utils.FormatCount(testCase.count)
			if result != testCase.expected {
				t.Fatalf("expected %s, got %s", testCase.expected, result)
			}
		})
	}
}
