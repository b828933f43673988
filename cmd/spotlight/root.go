package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/config"
)

// Version is the application version.
const Version = "0.1.0"

// app holds state shared by subcommands once PersistentPreRunE has run
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	detector  string
	segmenter string
	modelsDir string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     "spotlight",
		Short:   "Offline face detection and background desaturation for image frames",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if a.detector != "" {
				cfg.FaceDetector = a.detector
			}
			if a.segmenter != "" {
				cfg.Segmenter = a.segmenter
			}
			if a.modelsDir != "" {
				cfg.ModelsDir = a.modelsDir
			}

			a.cfg = cfg
			a.logger = config.NewLoggerTo(cfg.Environment, cmd.ErrOrStderr())
			return nil
		},
	}

	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.PersistentFlags().StringVar(&a.detector, "detector", "", "Face detector backend: yunet, rekognition, deepface, mock (default: $FACE_DETECTOR)")
	root.PersistentFlags().StringVar(&a.segmenter, "segmenter", "", "Person segmenter backend: onnx, mock (default: $SEGMENTER)")
	root.PersistentFlags().StringVar(&a.modelsDir, "models-dir", "", "Directory holding model weights (default: $MODELS_DIR)")

	root.AddCommand(
		newProvisionCmd(a),
		newDetectCmd(a),
		newProcessCmd(a),
	)

	return root
}
