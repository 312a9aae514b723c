package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	loadModes   = []string{"insert", "copy", "pandas"}
	authMethods = []string{"standard", "aws", "azure", "google"}
	encodings   = []string{"utf-8", "latin1", "windows-1252", "iso-8859-15", "shift_jis", "euc-jp", "gbk", "utf-16le"}
)

// completeFrom returns a flag completion function over a fixed list of values.
func completeFrom(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var matches []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				matches = append(matches, v)
			}
		}
		return matches, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeCSVFiles restricts --csv completion to .csv files.
func completeCSVFiles(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"csv", "CSV", "txt"}, cobra.ShellCompDirectiveFilterFileExt
}
