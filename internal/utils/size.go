package utils

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeUnits = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize converts a byte length into a human-readable lower-case unit string.
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		return "0b"
	}
	value := float64(bytes)
	unitIndex := 0
	for value >= 1024 && unitIndex < len(sizeUnits)-1 {
		value /= 1024
		unitIndex++
	}
	if unitIndex == 0 {
		return fmt.Sprintf("%db", bytes)
	}
	if value < 10 {
		return strings.TrimSuffix(fmt.Sprintf("%.1f", value), ".0") + sizeUnits[unitIndex]
	}
	return fmt.Sprintf("%.0f%s", value, sizeUnits[unitIndex])
}

// FormatCount renders a non-negative count with comma thousands separators.
func FormatCount(count int) string {
	digits := strconv.Itoa(count)
	if count < 0 {
		return digits
	}
	if len(digits) <= 3 {
		return digits
	}
	var builder strings.Builder
	leading := len(digits) % 3
	if leading > 0 {
		builder.WriteString(digits[:leading])
	}
	for index := leading; index < len(digits); index += 3 {
		if builder.Len() > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(digits[index : index+3])
	}
	return builder.String()
}
