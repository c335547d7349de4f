package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/eleven-am/trackex/internal/timeline"
)

var (
	frameStart  int
	frameOffset int
)

var framesCmd = &cobra.Command{
	Use:   "frames <scene|clip|true> <frame>",
	Short: "Translate a frame number between the three numbering systems",
	Long: `Frames converts one frame number between scene, clip and true
numbering for a clip with the given start frame and offset.

Example:
  trackex frames clip 10 --start 5 --offset 2`,
	Args: cobra.ExactArgs(2),
	RunE: runFrames,
}

func init() {
	rootCmd.AddCommand(framesCmd)

	framesCmd.Flags().IntVar(&frameStart, "start", 1, "clip frame_start")
	framesCmd.Flags().IntVar(&frameOffset, "offset", 0, "clip frame_offset")
}

func runFrames(cmd *cobra.Command, args []string) error {
	frame, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("frame must be an integer, got %q", args[1])
	}

	idx := timeline.NewFromOffsets(frameStart, frameOffset)

	var scene, clip, trueFrame int
	switch args[0] {
	case "scene":
		scene = frame
		clip = idx.SceneToClip(frame)
		trueFrame = idx.SceneToTrue(frame)
	case "clip":
		scene = idx.ClipToScene(frame)
		clip = frame
		trueFrame = idx.ClipToTrue(frame)
	case "true":
		scene = idx.TrueToScene(frame)
		clip = idx.TrueToClip(frame)
		trueFrame = frame
	default:
		return fmt.Errorf("unknown frame system %q (want scene, clip or true)", args[0])
	}

	fmt.Printf("scene: %d\nclip:  %d\ntrue:  %d\n", scene, clip, trueFrame)
	return nil
}
