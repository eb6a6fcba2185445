package check

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/operator-framework/wfc/cmd/generate"
	"github.com/operator-framework/wfc/internal/feasibility"
	"github.com/operator-framework/wfc/pkg/grid"
)

func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <exemplar>",
		Short: "Checks whether any grid of the given size can follow an exemplar's rules",
		Long: `Checks whether any grid of the given size can follow the adjacency
rules of an exemplar, without guessing. If one exists it is printed; if
none exists, no seed will make generate succeed.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			width, err := cmd.Flags().GetInt("width")
			if err != nil {
				return err
			}
			height, err := cmd.Flags().GetInt("height")
			if err != nil {
				return err
			}
			eightWay, err := cmd.Flags().GetBool("eight-way")
			if err != nil {
				return err
			}
			conn := grid.Cardinal
			if eightWay {
				conn = grid.EightWay
			}
			return check(args[0], width, height, conn, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntP("width", "W", 8, "output width in cells")
	cmd.Flags().IntP("height", "H", 8, "output height in cells")
	cmd.Flags().Bool("eight-way", false, "connect diagonal neighbors too")
	return cmd
}

func check(path string, width, height int, conn grid.Connectivity, out io.Writer) error {
	text, err := generate.ReadExemplar(path)
	if err != nil {
		return err
	}
	exemplar, err := text.Exemplar(conn)
	if err != nil {
		return fmt.Errorf("error building exemplar graph (%s): %w", path, err)
	}
	output, err := grid.Output(width, height, exemplar.AllLabels(), conn)
	if err != nil {
		return err
	}

	result, err := feasibility.Check(exemplar.Rules(), output)
	if err != nil {
		return err
	}
	if !result.Satisfiable {
		fmt.Fprintf(out, "unsatisfiable: no %dx%d %s grid follows the rules of %s\n", width, height, conn, path)
		return nil
	}
	fmt.Fprintln(out, "satisfiable:")
	return grid.RenderText(out, result.Assignment, text.Legend(), width)
}
