package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	frameannotator "github.com/menta2k/frame-annotator"
	"github.com/menta2k/frame-annotator/internal/utils"
	"github.com/menta2k/frame-annotator/pkg/session"
	"github.com/menta2k/frame-annotator/pkg/types"
)

const shellHelp = `Navigation:  next | prev | pgdn | pgup | goto <i>
Boxes:       draw <x1> <y1> <x2> <y2> [label] | delete | dellast
             move <dx> <dy> | resize <i> <dx1> <dy1> <dx2> <dy2>
Selection:   select <i> | toggle <i> | all | clear
Labels:      labels | label <name> | relabel <name> | addlabel <name> | rmlabel <name>
History:     undo | redo
View:        display <w> <h> | zoom in|out|reset | grid
Pointer:     down <x> <y> [toggle] | moveto <x> <y> | up <x> <y>
Other:       boxes | stats | save | autosave on|off | render [path] | help | quit
`

// ShellCmd returns the interactive annotation command
func ShellCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "shell <output-dir>",
		Short: "Annotate frames from an interactive prompt",
		Long: `shell resumes the session stored in <output-dir> and reads commands from
standard input. Type "help" for the list. Boxes are given in image pixels,
pointer commands in display pixels.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fa, logger, err := newAnnotator(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			s, err := fa.Resume(args[0])
			if err != nil {
				return err
			}
			runErr := runShell(fa, s, cmd.InOrStdin(), cmd.OutOrStdout())
			if err := s.Close(); err != nil {
				return err
			}
			return runErr
		},
	}
}

// runShell executes commands until quit or end of input
func runShell(fa *frameannotator.Annotator, s *session.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	prompt := func() { fmt.Fprintf(out, "[%d/%d] > ", s.Index()+1, s.FrameCount()) }

	prompt()
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			prompt()
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := shellExec(fa, s, fields, out); err != nil {
			failf(out, "%v", err)
		}
		prompt()
	}
	return scanner.Err()
}

func shellExec(fa *frameannotator.Annotator, s *session.Session, fields []string, out io.Writer) error {
	cmd, args := fields[0], fields[1:]
	nums, err := atois(args)

	switch cmd {
	case "help":
		fmt.Fprint(out, shellHelp)

	case "next", "prev", "pgdn", "pgup", "goto":
		var res session.EnterResult
		switch cmd {
		case "next":
			res, err = s.Next()
		case "prev":
			res, err = s.Prev()
		case "pgdn":
			res, err = s.NextPage()
		case "pgup":
			res, err = s.PrevPage()
		default:
			if err = need(cmd, nums, err, 1); err != nil {
				return err
			}
			res, err = s.Goto(nums[0])
		}
		if err != nil {
			return err
		}
		printWarnings(out, res.Warnings)
		fmt.Fprintf(out, "frame %d: %d boxes\n", res.Index, len(s.Boxes()))

	case "draw":
		if len(args) < 4 {
			return fmt.Errorf("usage: draw <x1> <y1> <x2> <y2> [label]")
		}
		coords, err := atois(args[:4])
		if err != nil {
			return err
		}
		label := ""
		if len(args) > 4 {
			label = args[4]
		}
		idx, err := s.AddBox(types.R(coords[0], coords[1], coords[2], coords[3]), label)
		if err != nil {
			return err
		}
		okf(out, "box %d", idx)

	case "delete":
		n, err := s.DeleteSelected()
		if err != nil {
			return err
		}
		okf(out, "deleted %d", n)

	case "dellast":
		n, err := s.DeleteLast()
		if err != nil {
			return err
		}
		okf(out, "deleted %d", n)

	case "move":
		if err := need(cmd, nums, err, 2); err != nil {
			return err
		}
		n, err := s.MoveSelection(nums[0], nums[1])
		if err != nil {
			return err
		}
		okf(out, "moved %d", n)

	case "resize":
		if err := need(cmd, nums, err, 5); err != nil {
			return err
		}
		if err := s.ResizeBox(nums[0], nums[1], nums[2], nums[3], nums[4]); err != nil {
			return err
		}
		okf(out, "resized %d", nums[0])

	case "select", "toggle":
		if err := need(cmd, nums, err, 1); err != nil {
			return err
		}
		var ok bool
		if cmd == "select" {
			ok = s.SelectOnly(nums[0])
		} else {
			ok = s.ToggleSelect(nums[0])
		}
		if !ok {
			return fmt.Errorf("no box %d", nums[0])
		}
		fmt.Fprintf(out, "selected %v\n", s.Selection())

	case "all":
		s.SelectAll()
		fmt.Fprintf(out, "selected %v\n", s.Selection())

	case "clear":
		s.ClearSelection()

	case "labels":
		current := s.CurrentLabel()
		for i, l := range s.Labels() {
			mark := " "
			if l == current {
				mark = "*"
			}
			fmt.Fprintf(out, "%s%3d  %s\n", mark, i, l)
		}

	case "label", "relabel", "addlabel", "rmlabel":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <name>", cmd)
		}
		switch cmd {
		case "label":
			return s.SetCurrentLabel(args[0])
		case "relabel":
			n, err := s.Relabel(args[0])
			if err != nil {
				return err
			}
			okf(out, "relabeled %d", n)
		case "addlabel":
			if err := s.AddLabel(args[0]); err != nil {
				return err
			}
			okf(out, "added %s", args[0])
		default:
			w, err := s.RemoveLabel(args[0])
			if err != nil {
				return err
			}
			warnf(out, "%s", w.String())
		}

	case "undo", "redo":
		var (
			action fmt.Stringer
			ok     bool
		)
		if cmd == "undo" {
			action, ok = s.Undo()
		} else {
			action, ok = s.Redo()
		}
		if !ok {
			return fmt.Errorf("nothing to %s", cmd)
		}
		okf(out, "%s %s", cmd, action)

	case "display":
		if err := need(cmd, nums, err, 2); err != nil {
			return err
		}
		s.SetDisplaySize(types.Size{W: nums[0], H: nums[1]})

	case "zoom":
		if len(args) != 1 {
			return fmt.Errorf("usage: zoom in|out|reset")
		}
		var z float64
		switch args[0] {
		case "in":
			z = s.ZoomIn()
		case "out":
			z = s.ZoomOut()
		case "reset":
			z = s.ZoomReset()
		default:
			return fmt.Errorf("usage: zoom in|out|reset")
		}
		fmt.Fprintf(out, "zoom %.2f\n", z)

	case "grid":
		fmt.Fprintf(out, "grid %v\n", s.ToggleGrid())

	case "down", "moveto", "up":
		if len(args) < 2 {
			return fmt.Errorf("usage: %s <x> <y>", cmd)
		}
		xy, err := atois(args[:2])
		if err != nil {
			return err
		}
		p := types.Point{X: xy[0], Y: xy[1]}
		switch cmd {
		case "down":
			s.PointerDown(p, len(args) > 2 && args[2] == "toggle")
		case "moveto":
			s.PointerMove(p)
		default:
			idx, err := s.PointerUp(p)
			if err != nil {
				return err
			}
			if idx >= 0 {
				okf(out, "box %d", idx)
			}
		}

	case "boxes":
		selected := map[int]bool{}
		for _, i := range s.Selection() {
			selected[i] = true
		}
		for i, b := range s.Boxes() {
			mark := " "
			if selected[i] {
				mark = "*"
			}
			fmt.Fprintf(out, "%s%3d  %-12s %s\n", mark, i, b.Label, b.Rect)
		}

	case "stats":
		fmt.Fprintln(out, s.Stats().String())

	case "save":
		if err := s.Save(); err != nil {
			return err
		}
		okf(out, "saved")

	case "autosave":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return fmt.Errorf("usage: autosave on|off")
		}
		if args[0] == "on" {
			s.EnableAutosave(0)
		} else {
			s.DisableAutosave()
		}
		fmt.Fprintf(out, "autosave %v\n", s.AutosaveEnabled())

	case "render":
		f, ok := s.Frame()
		if !ok {
			return session.ErrNoFrame
		}
		dest := ""
		if len(args) > 0 {
			dest = args[0]
		} else {
			root := filepath.Dir(filepath.Dir(f.Path))
			dest = utils.GenerateOutputFilename(f.Path, filepath.Join(root, "previews"), "", "_overlay", fa.Config().Render.Format)
		}
		if err := fa.RenderFrame(s, dest); err != nil {
			return err
		}
		if info, err := os.Stat(dest); err == nil {
			okf(out, "%s (%s)", dest, utils.FormatFileSize(info.Size()))
		}

	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

// atois parses every argument as an integer. The error is kept for commands
// that need numbers; others ignore it.
func atois(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", a)
		}
		out = append(out, n)
	}
	return out, nil
}

func need(cmd string, nums []int, err error, n int) error {
	if err != nil {
		return err
	}
	if len(nums) != n {
		return fmt.Errorf("%s takes %d numbers", cmd, n)
	}
	return nil
}
