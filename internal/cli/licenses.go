package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var licensesCmd = &cobra.Command{
	Use:   "licenses",
	Short: "Print the license identifiers of cryptopipe's third-party dependencies",
	RunE:  runLicenses,
}

func init() {
	rootCmd.AddCommand(licensesCmd)
}

// thirdPartyNotices lists the third-party modules this module requires
// (cobra with its pflag dependency, x/crypto, and the test-only testify)
// with the SPDX identifier of each one's license.
var thirdPartyNotices = []struct {
	Module  string
	License string
}{
	{"github.com/spf13/cobra", "Apache-2.0"},
	{"github.com/spf13/pflag", "BSD-3-Clause"},
	{"golang.org/x/crypto", "BSD-3-Clause"},
	{"github.com/stretchr/testify", "MIT"},
}

func runLicenses(cmd *cobra.Command, args []string) error {
	for _, n := range thirdPartyNotices {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", n.Module, n.License)
	}
	return nil
}
