package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// copyFlagTypeName keeps --copy out of the generic boolean normalizer so a
// following path is never mistaken for its value.
const copyFlagTypeName = "copy"

func registerCopyFlag(flagSet *pflag.FlagSet, target *bool) {
	registerTypedBooleanFlag(flagSet, target, copyFlagName, copyFlagTypeName, false, copyFlagDescription)
}

// normalizeCopyFlagArguments folds an explicit boolean literal following --copy
// into the flag. Any other following argument stays positional, so
// "--copy ./src" copies the listing of ./src.
func normalizeCopyFlagArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == "--" {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if current != "--"+copyFlagName {
			normalized = append(normalized, current)
			continue
		}
		nextIndex := index + 1
		if nextIndex < len(arguments) && !strings.HasPrefix(arguments[nextIndex], "-") {
			if booleanValue, ok := parseBooleanLiteral(arguments[nextIndex]); ok {
				normalized = append(normalized, fmt.Sprintf("--%s=%t", copyFlagName, booleanValue))
				index++
				continue
			}
		}
		normalized = append(normalized, fmt.Sprintf("--%s=true", copyFlagName))
	}
	return normalized
}
