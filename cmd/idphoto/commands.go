package main

import (
	"encoding/json"
	"fmt"
	"image"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/menta2k/idphoto"
	"github.com/menta2k/idphoto/internal/utils"
	"github.com/menta2k/idphoto/pkg/composite"
	"github.com/menta2k/idphoto/pkg/geometry"
	"github.com/menta2k/idphoto/pkg/imageio"
	"github.com/menta2k/idphoto/pkg/layout"
	"github.com/menta2k/idphoto/pkg/tone"
	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/vision"
)

// overrideInt replaces *dst with the flag value when the user set the flag.
func overrideInt(cmd *cobra.Command, name string, dst *int) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

func overrideString(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", "", "output directory")
	cmd.Flags().String("format", "", "output format: jpg, png or webp")
	cmd.Flags().Int("quality", 0, "JPEG/WebP quality (1-100)")
	cmd.Flags().Int("max-kb", 0, "compress JPEG output to at most this many KB")
}

func (a *app) applyOutputFlags(cmd *cobra.Command) {
	overrideString(cmd, "out", &a.cfg.Output.Dir)
	overrideString(cmd, "format", &a.cfg.Output.Format)
	overrideInt(cmd, "quality", &a.cfg.Output.Quality)
	overrideInt(cmd, "max-kb", &a.cfg.Output.MaxSizeKB)
}

func addToneFlags(cmd *cobra.Command) {
	cmd.Flags().Int("brightness", 0, "brightness (-100..100)")
	cmd.Flags().Int("contrast", 0, "contrast (-100..100)")
	cmd.Flags().Int("saturation", 0, "saturation (-100..100)")
	cmd.Flags().Int("hue", 0, "hue shift (-180..180)")
	cmd.Flags().Int("sharpness", 0, "sharpness (0..100)")
	cmd.Flags().String("levels", "", "levels as inBlack,inWhite,gamma,outBlack,outWhite")
}

func (a *app) applyToneFlags(cmd *cobra.Command) error {
	t := &a.cfg.Tone
	overrideInt(cmd, "brightness", &t.Brightness)
	overrideInt(cmd, "contrast", &t.Contrast)
	overrideInt(cmd, "saturation", &t.Saturation)
	overrideInt(cmd, "hue", &t.Hue)
	overrideInt(cmd, "sharpness", &t.Sharpness)
	if cmd.Flags().Changed("levels") {
		s, _ := cmd.Flags().GetString("levels")
		l, err := parseLevels(s)
		if err != nil {
			return err
		}
		t.Levels = l
	}
	return nil
}

func addBeautyFlags(cmd *cobra.Command) {
	cmd.Flags().Int("smooth", 0, "skin smoothing (0..100)")
	cmd.Flags().Int("whiten", 0, "skin whitening (0..100)")
	cmd.Flags().Int("slim", 0, "face slimming (0..100)")
	cmd.Flags().Int("eyes", 0, "eye enlargement (0..100)")
}

func (a *app) applyBeautyFlags(cmd *cobra.Command) {
	b := &a.cfg.Beauty
	overrideInt(cmd, "smooth", &b.Smoothing)
	overrideInt(cmd, "whiten", &b.Whitening)
	overrideInt(cmd, "slim", &b.SlimFace)
	overrideInt(cmd, "eyes", &b.EnlargeEyes)
}

func addBackgroundFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "background mode: solid, vertical or radial")
	cmd.Flags().String("color", "", "solid colour: "+strings.Join(composite.ColorNames(), ", ")+" or #RRGGBB")
	cmd.Flags().String("start", "", "gradient start colour")
	cmd.Flags().String("end", "", "gradient end colour")
	cmd.Flags().Int("strength", 0, "gradient strength (-100..100)")
}

func (a *app) background(cmd *cobra.Command) (composite.Background, error) {
	bg := &a.cfg.Background
	overrideString(cmd, "mode", &bg.Mode)
	overrideString(cmd, "color", &bg.Color)
	overrideString(cmd, "start", &bg.Start)
	overrideString(cmd, "end", &bg.End)
	overrideInt(cmd, "strength", &bg.Strength)
	return bg.Resolve()
}

func (a *app) processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process INPUT...",
		Short: "Run the whole pipeline: geometry, beauty, tone and background",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyOutputFlags(cmd)
			a.applyBeautyFlags(cmd)
			if err := a.applyToneFlags(cmd); err != nil {
				return err
			}
			req := idphoto.Request{Beauty: a.cfg.Beauty, Tone: a.cfg.Tone}
			var err error
			if req.Geometry, err = geometryFlags(cmd); err != nil {
				return err
			}
			if on, _ := cmd.Flags().GetBool("background"); on {
				bg, err := a.background(cmd)
				if err != nil {
					return err
				}
				req.Background = &bg
			}
			return a.forEachInput(cmd.Context(), args, func(img image.Image) (image.Image, error) {
				return a.studio.Process(cmd.Context(), img, req)
			})
		},
	}
	addOutputFlags(cmd)
	addToneFlags(cmd)
	addBeautyFlags(cmd)
	addBackgroundFlags(cmd)
	addGeometryFlags(cmd)
	cmd.Flags().Bool("background", false, "replace the background (input needs transparency)")
	cmd.Flags().String("size", "", "center crop to a photo size name or WxH in mm")
	return cmd
}

func (a *app) toneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tone INPUT...",
		Short: "Adjust brightness, contrast, saturation, hue, sharpness and levels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyOutputFlags(cmd)
			if err := a.applyToneFlags(cmd); err != nil {
				return err
			}
			showHist, _ := cmd.Flags().GetBool("histogram")
			return a.forEachInput(cmd.Context(), args, func(img image.Image) (image.Image, error) {
				out, err := a.studio.Tone(img, a.cfg.Tone)
				if err != nil {
					return nil, err
				}
				if showHist {
					fmt.Fprintln(cmd.OutOrStdout(), histogramSummary(out))
				}
				return out, nil
			})
		},
	}
	addOutputFlags(cmd)
	addToneFlags(cmd)
	cmd.Flags().Bool("histogram", false, "print a histogram summary of each result")
	return cmd
}

func (a *app) beautyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beauty INPUT...",
		Short: "Smooth and whiten skin, slim the face and enlarge the eyes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyOutputFlags(cmd)
			a.applyBeautyFlags(cmd)
			return a.forEachInput(cmd.Context(), args, func(img image.Image) (image.Image, error) {
				return a.studio.Beautify(cmd.Context(), img, a.cfg.Beauty)
			})
		},
	}
	addOutputFlags(cmd)
	addBeautyFlags(cmd)
	return cmd
}

// histogramSummary reports the tallest histogram bin and the mean of each
// channel.
func histogramSummary(img image.Image) string {
	hist := tone.Histogram(img)
	var mean [3]float64
	for c := range hist {
		total := 0
		for v, n := range hist[c] {
			mean[c] += float64(v * n)
			total += n
		}
		if total > 0 {
			mean[c] /= float64(total)
		}
	}
	return fmt.Sprintf("histogram peak %d, mean R %.1f G %.1f B %.1f", tone.HistogramMax(hist), mean[0], mean[1], mean[2])
}

func (a *app) backgroundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "background INPUT...",
		Short: "Place a transparent cutout on a solid or gradient background",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyOutputFlags(cmd)
			bg, err := a.background(cmd)
			if err != nil {
				return err
			}
			return a.forEachInput(cmd.Context(), args, func(img image.Image) (image.Image, error) {
				return a.studio.Background(img, bg)
			})
		},
	}
	addOutputFlags(cmd)
	addBackgroundFlags(cmd)
	return cmd
}

func addGeometryFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("angle", 0, "rotate clockwise by degrees (-45..45)")
	cmd.Flags().Int("quarter", 0, "rotate by quarter turns clockwise (negative for counter-clockwise)")
	cmd.Flags().Bool("flip-h", false, "mirror left to right")
	cmd.Flags().Bool("flip-v", false, "mirror top to bottom")
}

// geometryFlags reads the rotation flags and, when the command has one,
// --size as a centered crop.
func geometryFlags(cmd *cobra.Command) (idphoto.Geometry, error) {
	var g idphoto.Geometry
	g.Angle, _ = cmd.Flags().GetFloat64("angle")
	g.QuarterTurns, _ = cmd.Flags().GetInt("quarter")
	g.FlipHorizontal, _ = cmd.Flags().GetBool("flip-h")
	g.FlipVertical, _ = cmd.Flags().GetBool("flip-v")
	if f := cmd.Flags().Lookup("size"); f != nil && f.Value.String() != "" {
		size, err := layout.LookupSize(layout.PhotoSizes, f.Value.String())
		if err != nil {
			return g, err
		}
		g.CenterCrop = &idphoto.PrintSize{WidthMM: size.WidthMM, HeightMM: size.HeightMM}
	}
	return g, nil
}

func (a *app) rotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotate INPUT...",
		Short: "Rotate or flip photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyOutputFlags(cmd)
			g, err := geometryFlags(cmd)
			if err != nil {
				return err
			}
			return a.forEachInput(cmd.Context(), args, func(img image.Image) (image.Image, error) {
				return a.studio.Transform(img, g)
			})
		},
	}
	addOutputFlags(cmd)
	addGeometryFlags(cmd)
	return cmd
}

func (a *app) cropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crop INPUT...",
		Short: "Crop to a print size, centered, from a rectangle or content-aware",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyOutputFlags(cmd)
			sizeName, _ := cmd.Flags().GetString("size")
			size, err := layout.LookupSize(layout.PhotoSizes, sizeName)
			if err != nil {
				return err
			}
			rectFlag, _ := cmd.Flags().GetString("rect")
			lock, _ := cmd.Flags().GetBool("lock-aspect")
			suggest, _ := cmd.Flags().GetBool("suggest")

			var rect *types.Rect
			if rectFlag != "" {
				r, err := parseRect(rectFlag)
				if err != nil {
					return err
				}
				rect = &r
			}

			return a.forEachInput(cmd.Context(), args, func(img image.Image) (image.Image, error) {
				g := idphoto.Geometry{}
				switch {
				case rect != nil:
					g.Crop = &geometry.CropRequest{Rect: *rect, WidthMM: size.WidthMM, HeightMM: size.HeightMM, LockAspect: lock}
				case suggest:
					r, err := geometry.SuggestCrop(cmd.Context(), img, size.WidthMM, size.HeightMM, a.cfg.Layout.DPI)
					if err != nil {
						return nil, err
					}
					a.logger.Debug().Interface("rect", r).Msg("suggested crop")
					g.Crop = &geometry.CropRequest{Rect: r, WidthMM: size.WidthMM, HeightMM: size.HeightMM}
				default:
					g.CenterCrop = &idphoto.PrintSize{WidthMM: size.WidthMM, HeightMM: size.HeightMM}
				}
				return a.studio.Transform(img, g)
			})
		},
	}
	addOutputFlags(cmd)
	cmd.Flags().String("size", "1inch", "photo size name or WxH in mm")
	cmd.Flags().String("rect", "", "crop rectangle x,y,w,h in pixels")
	cmd.Flags().Bool("lock-aspect", false, "shrink --rect to the size's aspect ratio")
	cmd.Flags().Bool("suggest", false, "choose the crop rectangle from the image content")
	return cmd
}

func (a *app) layoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout [PHOTO]",
		Short: "Lay copies of a photo out on paper for printing",
		Long:  "Lay copies of a photo out on paper. Without PHOTO the sheet shows labelled placeholders.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyOutputFlags(cmd)
			overrideString(cmd, "style", &a.cfg.Layout.Style)
			style, err := a.cfg.Layout.FindStyle(a.cfg.Layout.Style)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("gridlines") {
				style.ShowGridlines, _ = cmd.Flags().GetBool("gridlines")
			}

			var photo image.Image
			source := "sheet"
			if len(args) == 1 {
				source = args[0]
				if photo, err = a.studio.Load(cmd.Context(), source); err != nil {
					return err
				}
			}
			res, err := a.studio.Sheet(photo, style)
			if err != nil {
				return err
			}
			a.logger.Debug().Msg(res.String())

			opts := a.outputOptions()
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = a.outputPath(source, "_"+style.Name)
			} else {
				opts.Format = imageio.FormatFromPath(output)
			}
			if err := a.studio.Save(res.Canvas, output, opts, a.cfg.Output.MaxSizeKB); err != nil {
				return err
			}
			return a.logWritten(source, output)
		},
	}
	addOutputFlags(cmd)
	cmd.Flags().String("style", "", "layout style name (see presets)")
	cmd.Flags().String("output", "", "output file (default derived from the input)")
	cmd.Flags().Bool("gridlines", false, "draw the margin guide")
	return cmd
}

func (a *app) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List paper sizes, photo sizes, layout styles and background colours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PAPER\tSIZE")
			for _, s := range layout.PaperSizes {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, layout.Label(s.WidthMM, s.HeightMM))
			}
			fmt.Fprintln(w, "\nPHOTO\tSIZE")
			for _, s := range layout.PhotoSizes {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, layout.Label(s.WidthMM, s.HeightMM))
			}
			fmt.Fprintln(w, "\nSTYLE\tPAPER\tPHOTOS")
			for _, s := range a.cfg.Layout.AllStyles() {
				n := 0
				for _, p := range s.Photos {
					n += p.Count
				}
				fmt.Fprintf(w, "%s\t%s %s\t%d\n", s.Name, s.Paper, s.Orientation, n)
			}
			fmt.Fprintln(w, "\nCOLOUR\tHEX")
			for _, name := range composite.ColorNames() {
				c, _ := composite.NamedColor(name)
				fmt.Fprintf(w, "%s\t%s\n", name, composite.Hex(c))
			}
			return w.Flush()
		},
	}
}

func (a *app) detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect INPUT",
		Short: "Detect faces and eyes with the configured backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrideString(cmd, "backend", &a.cfg.Detection.Backend)
			if cmd.Flags().Changed("backend") {
				var err error
				if a.studio, err = idphoto.NewWithConfig(a.cfg, idphoto.WithLogger(a.logger)); err != nil {
					return err
				}
			}
			ctx := cmd.Context()
			img, err := a.studio.Load(ctx, args[0])
			if err != nil {
				return err
			}
			faces, err := a.studio.DetectFaces(ctx, img)
			if err != nil {
				return err
			}
			eyes, err := a.studio.DetectEyes(ctx, img, faces)
			if err != nil {
				return err
			}

			report := struct {
				Info    imageio.Info `json:"info"`
				Faces   []types.Rect `json:"faces"`
				Primary *types.Rect  `json:"primary,omitempty"`
				Eyes    []types.Rect `json:"eyes"`
			}{Info: imageio.GetInfo(img, a.cfg.Layout.DPI), Faces: faces, Eyes: eyes}
			if face, ok := vision.Largest(faces); ok {
				report.Primary = &face
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}

			if overlay, _ := cmd.Flags().GetString("overlay"); overlay != "" {
				if err := imageio.Save(imageio.DebugOverlay(img, faces, eyes), overlay, imageio.Options{}); err != nil {
					return err
				}
				return a.logWritten(args[0], overlay)
			}
			return nil
		},
	}
	cmd.Flags().String("backend", "", "detection backend: none, pigo, ollama, llamacpp")
	cmd.Flags().String("overlay", "", "write a copy with faces and eyes outlined to this path")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "idphoto %s\n", idphoto.GetVersion())
			return err
		},
	}
}

// outputPath names an output in the configured directory
func (a *app) outputPath(source, suffix string) string {
	format := a.cfg.Output.Format
	if a.cfg.Output.MaxSizeKB > 0 {
		format = "jpg"
	}
	return utils.OutputPath(source, a.cfg.Output.Dir, a.cfg.Output.Prefix, suffix, format)
}

// parseRect parses "x,y,w,h"
func parseRect(s string) (types.Rect, error) {
	v, err := parseInts(s, 4)
	if err != nil {
		return types.Rect{}, fmt.Errorf("invalid --rect %q: %w", s, err)
	}
	return types.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// parseLevels parses "inBlack,inWhite,gamma,outBlack,outWhite"
func parseLevels(s string) (types.Levels, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 5 {
		return types.Levels{}, fmt.Errorf("invalid --levels %q: want 5 comma separated values: %w", s, types.ErrInvalidParameter)
	}
	gamma, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return types.Levels{}, fmt.Errorf("invalid --levels gamma %q: %w", parts[2], types.ErrInvalidParameter)
	}
	ints, err := parseInts(strings.Join([]string{parts[0], parts[1], parts[3], parts[4]}, ","), 4)
	if err != nil {
		return types.Levels{}, fmt.Errorf("invalid --levels %q: %w", s, err)
	}
	return types.Levels{InputBlack: ints[0], InputWhite: ints[1], Gamma: gamma, OutputBlack: ints[2], OutputWhite: ints[3]}, nil
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma separated integers: %w", n, types.ErrInvalidParameter)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer: %w", p, types.ErrInvalidParameter)
		}
		out[i] = v
	}
	return out, nil
}
