package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/domain"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/face"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/service"
)

func newDetectCmd(a *app) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Print the faces found in an image as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			return a.withProcessor(cmd.Context(), func(p *service.FrameProcessor) error {
				img, err := readImage(input)
				if err != nil {
					return err
				}

				detections, err := p.DetectFaces(cmd.Context(), img)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), detections)
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Path to input image")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newProcessCmd(a *app) *cobra.Command {
	var (
		input  string
		output string
		mode   string
		faces  bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Desaturate the background of an image, keeping people in color",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a.logger.Debug("processing frame", "mode", mode, "input", input)

			return a.withProcessor(cmd.Context(), func(p *service.FrameProcessor) error {
				img, err := readImage(input)
				if err != nil {
					return err
				}

				composite := p.GrayscaleBackgroundWithPerson
				if faces {
					composite = p.GrayscaleBackgroundWithFaces
				}

				out, detections, err := composite(cmd.Context(), img)
				if err != nil {
					return err
				}

				data, err := service.EncodeJPEG(out, service.JPEGQuality)
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				return writeJSON(cmd.OutOrStdout(), detections)
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Path to input image")
	cmd.Flags().StringVarP(&output, "output", "o", "processed.jpg", "Path to output JPEG")
	cmd.Flags().StringVarP(&mode, "mode", "m", "grayscale", "Processing mode")
	cmd.Flags().BoolVar(&faces, "faces", false, "Keep face boxes in color instead of the segmented person")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// withProcessor loads the configured models for the duration of fn
func (a *app) withProcessor(ctx context.Context, fn func(*service.FrameProcessor) error) error {
	host, err := face.NewHost(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to load models: %w", err)
	}
	defer func() {
		if err := host.Close(); err != nil {
			a.logger.Error("model host close error", "error", err)
		}
	}()

	return fn(service.NewFrameProcessor(host.Faces, host.Segmenter))
}

func readImage(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	return service.DecodeRGB(f)
}

func writeJSON(w io.Writer, detections []domain.Detection) error {
	if detections == nil {
		detections = []domain.Detection{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(detections)
}
