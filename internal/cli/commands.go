package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/menta2k/frame-annotator/internal/utils"
	"github.com/menta2k/frame-annotator/pkg/labelfmt"
	"github.com/menta2k/frame-annotator/pkg/workspace"
)

// ImportCmd returns the import command
func ImportCmd(opts *Options) *cobra.Command {
	var labels []string

	cmd := &cobra.Command{
		Use:   "import <output-dir> <photo|dir>...",
		Short: "Copy photos into an output directory as numbered frames",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fa, logger, err := newAnnotator(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			var photos []string
			for _, arg := range args[1:] {
				if utils.DirExists(arg) {
					found, err := utils.ListImageFiles(arg)
					if err != nil {
						return fmt.Errorf("failed to list %s: %w", arg, err)
					}
					photos = append(photos, found...)
					continue
				}
				photos = append(photos, arg)
			}

			s, err := fa.ImportImages(args[0], photos, labels)
			if err != nil {
				return err
			}
			defer s.Close()
			okf(cmd.OutOrStdout(), "%d frames in %s", s.FrameCount(), args[0])
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&labels, "labels", "l", nil, "labels to add to the vocabulary")
	return cmd
}

// ExtractCmd returns the extract command
func ExtractCmd(opts *Options) *cobra.Command {
	var (
		interval int
		labels   []string
	)

	cmd := &cobra.Command{
		Use:   "extract <video> <output-dir>",
		Short: "Extract every Nth frame of a video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fa, logger, err := newAnnotator(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			s, err := fa.ExtractVideo(ctx, args[0], args[1], interval, labels)
			if err != nil {
				return err
			}
			defer s.Close()
			okf(cmd.OutOrStdout(), "%d frames extracted to %s", s.FrameCount(), args[1])
			return nil
		},
	}
	cmd.Flags().IntVarP(&interval, "interval", "n", 0, "keep every Nth frame (0 uses the config)")
	cmd.Flags().StringSliceVarP(&labels, "labels", "l", nil, "labels to add to the vocabulary")
	return cmd
}

// StatusCmd returns the status command
func StatusCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <output-dir>",
		Short: "Show progress of an annotation session",
		Args:  cobra.ExactArgs(1),
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
			defer s.Close()

			out := cmd.OutOrStdout()
			d := s.Descriptor()
			st := s.Stats()
			fmt.Fprintf(out, "Session: %s\n", d.SessionID)
			fmt.Fprintf(out, "Source:  %s\n", d.SourcePath)
			fmt.Fprintf(out, "Labels:  %s\n", strings.Join(d.Labels, ", "))
			fmt.Fprintf(out, "Frames:  %d (%d annotated)\n", st.Frames, st.AnnotatedFrames)
			fmt.Fprintf(out, "Current: %d\n", st.CurrentFrame)

			var total int64
			files, _ := fa.Workspace(args[0]).LabelFiles()
			for _, f := range files {
				if info, err := os.Stat(f); err == nil {
					total += info.Size()
				}
			}
			fmt.Fprintf(out, "Label data: %s\n", utils.FormatFileSize(total))
			return nil
		},
	}
}

// LabelsCmd returns the labels command group
func LabelsCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Inspect and edit the label vocabulary",
	}

	withDescriptor := func(dir string, fn func(ws *workspace.Workspace, d *workspace.Descriptor) error) error {
		fa, logger, err := newAnnotator(opts)
		if err != nil {
			return err
		}
		defer logger.Sync()
		ws := fa.Workspace(dir)
		d, err := ws.LoadDescriptor()
		if err != nil {
			return err
		}
		return fn(ws, d)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <output-dir>",
		Short: "List labels with their class ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDescriptor(args[0], func(_ *workspace.Workspace, d *workspace.Descriptor) error {
				for i, l := range d.Labels {
					fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", i, l)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <output-dir> <label>...",
		Short: "Append labels to the vocabulary",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDescriptor(args[0], func(ws *workspace.Workspace, d *workspace.Descriptor) error {
				vocab := labelfmt.NewVocabulary(d.Labels...)
				for _, l := range args[1:] {
					if err := vocab.Add(l); err != nil {
						warnf(cmd.OutOrStdout(), "%v", err)
						continue
					}
					okf(cmd.OutOrStdout(), "%s -> class %d", l, vocab.Index(strings.TrimSpace(l)))
				}
				d.Labels = vocab.Names()
				return ws.SaveDescriptor(d)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <output-dir> <label>",
		Short: "Remove a label; later class ids shift down by one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDescriptor(args[0], func(ws *workspace.Workspace, d *workspace.Descriptor) error {
				vocab := labelfmt.NewVocabulary(d.Labels...)
				idx, err := vocab.Remove(args[1])
				if err != nil {
					return err
				}
				d.Labels = vocab.Names()
				if err := ws.SaveDescriptor(d); err != nil {
					return err
				}
				okf(cmd.OutOrStdout(), "removed %s (class %d)", args[1], idx)
				warnf(cmd.OutOrStdout(), "existing label files are not rewritten: class ids above %d now refer to different labels", idx)
				return nil
			})
		},
	})

	return cmd
}

// ValidateCmd returns the validate command
func ValidateCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <output-dir>",
		Short: "Decode every label file and report problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fa, logger, err := newAnnotator(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			reports, err := fa.Validate(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			problems := 0
			for _, r := range reports {
				name := filepath.Base(r.Path)
				if len(r.Warnings) == 0 {
					fmt.Fprintf(out, "%s %s: %d boxes\n", color.New(color.FgGreen).Sprint("✓"), name, r.Boxes)
					continue
				}
				problems += len(r.Warnings)
				fmt.Fprintf(out, "%s %s: %d boxes, %d problems\n", color.New(color.FgYellow).Sprint("!"), name, r.Boxes, len(r.Warnings))
				printWarnings(out, r.Warnings)
			}
			if problems > 0 {
				return fmt.Errorf("%d problems in %d label files", problems, len(reports))
			}
			okf(out, "%d label files valid", len(reports))
			return nil
		},
	}
}

// RenderCmd returns the render command
func RenderCmd(opts *Options) *cobra.Command {
	var (
		frame int
		all   bool
		dest  string
	)

	cmd := &cobra.Command{
		Use:   "render <output-dir>",
		Short: "Write overlay previews of annotated frames",
		Args:  cobra.ExactArgs(1),
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
			defer s.Close()

			if dest == "" {
				dest = filepath.Join(args[0], "previews")
			}
			indices := []int{frame}
			if frame < 0 {
				indices = []int{s.Index()}
			}
			if all {
				indices = indices[:0]
				for i := 0; i < s.FrameCount(); i++ {
					indices = append(indices, i)
				}
			}

			for _, i := range indices {
				if _, err := s.Goto(i); err != nil {
					return err
				}
				f, _ := s.Frame()
				path := utils.GenerateOutputFilename(f.Path, dest, "", "_overlay", fa.Config().Render.Format)
				if err := fa.RenderFrame(s, path); err != nil {
					failf(cmd.OutOrStdout(), "frame %d: %v", i, err)
					continue
				}
				okf(cmd.OutOrStdout(), "%s", path)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&frame, "frame", "f", -1, "frame index (default: current frame)")
	cmd.Flags().BoolVar(&all, "all", false, "render every frame")
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "output directory (default: <output-dir>/previews)")
	return cmd
}
