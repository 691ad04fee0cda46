package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/claw"
	"github.com/matzehuels/amrraster/pkg/errors"
	"github.com/matzehuels/amrraster/pkg/pipeline"
)

// infoCommand creates the info command for inspecting a solution directory.
func (c *CLI) infoCommand() *cobra.Command {
	var (
		solnDir string
		frameBg int
		frameEd int
	)

	cmd := &cobra.Command{
		Use:   "info CASE",
		Short: "List the frames of a solution directory",
		Long: `List the frames of a solution directory.

Prints the run metadata and, for every frame, its time, patch count, AMR
levels and the bounds of all patches. Without --frame-ed the frame count
comes from claw.data; when claw.data is absent, frames are listed until the
first missing one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			end := -1
			if cmd.Flags().Changed("frame-ed") {
				end = frameEd
			}
			return c.runInfo(cmd.Context(), args[0], resolvePath(args[0], solnDir), frameBg, end)
		},
	}

	cmd.Flags().StringVar(&solnDir, "soln-dir", pipeline.DefaultSolutionDir, "solution directory, relative paths are relative to CASE")
	cmd.Flags().IntVar(&frameBg, "frame-bg", 0, "first frame")
	cmd.Flags().IntVar(&frameEd, "frame-ed", 0, "end frame, exclusive (default: from claw.data)")

	return cmd
}

// frameRow is one line of the info table.
type frameRow struct {
	frame   int
	time    float64
	patches int
	levels  []int
	bounds  amr.Bounds
}

func (r frameRow) cells() []string {
	levels := make([]string, len(r.levels))
	for i, l := range r.levels {
		levels[i] = strconv.Itoa(l)
	}
	b := r.bounds
	return []string{
		strconv.Itoa(r.frame),
		strconv.FormatFloat(r.time, 'g', 6, 64),
		strconv.Itoa(r.patches),
		strings.Join(levels, ","),
		fmt.Sprintf("%g, %g, %g, %g", b.XMin, b.YMin, b.XMax, b.YMax),
	}
}

// runInfo prints the run metadata and the frame table. A negative ed means
// "from claw.data, or until the first missing frame".
func (c *CLI) runInfo(ctx context.Context, caseDir, solnDir string, bg, ed int) error {
	logger := loggerFromContext(ctx)
	if err := checkCase(caseDir); err != nil {
		return err
	}

	meta, err := claw.LoadRunData(solnDir)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(caseName(caseDir)))
	printKeyValue("solution", solnDir)
	if n, err := meta.FrameCount(); err == nil {
		printKeyValue("frames", strconv.Itoa(n))
		if ed < 0 {
			ed = n
		}
	}
	if l, err := meta.FinestLevel(); err == nil {
		printKeyValue("max level", strconv.Itoa(l))
	}
	if tol, err := meta.DefaultDryTolerance(); err == nil {
		printKeyValue("dry tolerance", strconv.FormatFloat(tol, 'g', -1, 64))
	}
	fmt.Println()

	rows, err := listFrames(ctx, claw.NewReader(solnDir, nil), bg, ed)
	if err != nil {
		return err
	}
	logger.Debug("listed frames", "dir", solnDir, "frames", len(rows))

	table := make([][]string, len(rows))
	for i, r := range rows {
		table[i] = r.cells()
	}
	printTable([]string{"frame", "time", "patches", "levels", "bounds"}, table)
	fmt.Println(StyleDim.Render(fmt.Sprintf("%s frames listed", StyleNumber.Render(strconv.Itoa(len(rows))))))
	return nil
}

// listFrames reads frames [bg, ed). With ed < 0 it stops quietly at the
// first missing frame after bg.
func listFrames(ctx context.Context, r *claw.Reader, bg, ed int) ([]frameRow, error) {
	if ed >= 0 {
		if err := errors.ValidateFrameRange(bg, ed); err != nil {
			return nil, err
		}
	}

	var rows []frameRow
	for frame := bg; ed < 0 || frame < ed; frame++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := r.ReadFrame(frame)
		if err != nil {
			if ed < 0 && frame > bg && errors.Is(err, errors.ErrCodeMissingFrame) {
				break
			}
			return nil, err
		}
		row := frameRow{frame: f.Index, time: f.Time, patches: len(f.Patches), levels: f.Levels()}
		row.bounds, _ = amr.UnionBounds(f.Patches)
		rows = append(rows, row)
	}
	return rows, nil
}
