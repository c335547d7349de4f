package cli

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/eleven-am/trackex"
)

// modelConfig mirrors one entry of the "models" list in the config file.
type modelConfig struct {
	Name        string `mapstructure:"name"`
	TargetClass string `mapstructure:"target_class"`
	Keypoints   int    `mapstructure:"keypoints"`
}

func init() {
	viper.SetDefault("threshold", 0.9)
	viper.SetDefault("workers", 4)
	viper.SetDefault("models", []map[string]any{
		{"name": "rtmpose_body", "target_class": "Person", "keypoints": 17},
		{"name": "rtmpose_wholebody", "target_class": "Person", "keypoints": 26},
	})
	viper.SetDefault("tag_families", []string{"APRILTAG_36H11"})
}

// buildExtractor assembles an Extractor from the layered configuration:
// flags override env vars override the config file over the defaults.
func buildExtractor(threshold float64, filterLocked, coarse bool, workers int) (*trackex.Extractor, error) {
	var models []modelConfig
	if err := viper.UnmarshalKey("models", &models); err != nil {
		return nil, fmt.Errorf("parse models config: %w", err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("no vision models configured; set models in the config file")
	}

	entries := make([]trackex.ModelEntry, len(models))
	for i, m := range models {
		entries[i] = trackex.ModelEntry{Name: m.Name, TargetClass: m.TargetClass, Keypoints: m.Keypoints}
	}

	return trackex.NewExtractor(trackex.Options{
		Models:              entries,
		TagFamilies:         viper.GetStringSlice("tag_families"),
		ConfidenceThreshold: threshold,
		FilterLocked:        filterLocked,
		CoarseArea:          coarse,
		Workers:             workers,
	}), nil
}
