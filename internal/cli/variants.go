// internal/cli/variants.go
package termbench

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mwiater/termbench/internal/pattern"
	"github.com/mwiater/termbench/internal/util"
	"github.com/spf13/cobra"
)

const previewWidth = 24

// variantInfo describes one benchmark pattern.
type variantInfo struct {
	Name         string `json:"name"`
	Alphabet     string `json:"alphabet"`
	Colors       string `json:"colors"`
	CycleBytes   int    `json:"cycle_bytes"`
	PreludeBytes int    `json:"prelude_bytes"`
	Preview      string `json:"preview"`
}

// variantsCmd implements 'variants', which lists the twelve benchmark patterns.
var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List the benchmark variants",
	Long:  `List every benchmark variant with its alphabet, color regime, and the size of one pattern cycle.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printVariants(cmd.OutOrStdout(), JSONModeEnabled())
	},
}

func init() {
	rootCmd.AddCommand(variantsCmd)
}

func describeVariants() []variantInfo {
	var infos []variantInfo
	for _, v := range pattern.All() {
		src, _ := pattern.Build(v)
		infos = append(infos, variantInfo{
			Name:         v.String(),
			Alphabet:     v.Alphabet().String(),
			Colors:       v.Colors().String(),
			CycleBytes:   len(src.Cycle),
			PreludeBytes: len(src.Prelude),
			Preview:      util.TruncateToWidth(pattern.Text(v.Alphabet()), previewWidth),
		})
	}
	return infos
}

func printVariants(out io.Writer, jsonMode bool) error {
	infos := describeVariants()
	if jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	nameWidth := 0
	for _, info := range infos {
		nameWidth = max(nameWidth, util.CellWidth(info.Name))
	}
	fmt.Fprintln(out, "Benchmark variants:")
	for _, info := range infos {
		axes := info.Alphabet + " / " + info.Colors
		fmt.Fprintf(out, "  %s  %s %7d B  %s\n",
			util.PadToWidth(info.Name, nameWidth), util.PadToWidth(axes, 22), info.CycleBytes+info.PreludeBytes, info.Preview)
	}
	return nil
}
