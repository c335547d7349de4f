package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eleven-am/trackex"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <track name>",
	Short: "Classify a track name against the configured source tokens",
	Long: `Classify parses one track name with the same grammar the extraction
pass uses and prints the resulting kind and fields.

Example:
  trackex classify LeftArm.Det1.Person17.3
  trackex classify Tag.ML.7`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	extractor, err := buildExtractor(viper.GetFloat64("threshold"), false, false, 0)
	if err != nil {
		return err
	}

	c, err := extractor.Classify(args[0])
	if err != nil {
		return err
	}

	switch c.Kind {
	case trackex.KindJoint:
		fmt.Printf("joint: pose=%q source=%s id=%d\n", c.PoseName, c.Source, c.JointID)
	case trackex.KindTag:
		fmt.Printf("tag: source=%s id=%d\n", c.Source, c.TagID)
	default:
		fmt.Println("generic")
	}

	if verbose {
		fmt.Printf("pose sources: %s\n", strings.Join(extractor.PoseSources(), ", "))
		fmt.Printf("tag sources:  %s\n", strings.Join(extractor.TagSources(), ", "))
	}
	return nil
}
