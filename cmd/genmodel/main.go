// Command genmodel writes a small deterministic classifier bundle so the
// service and the score command can run without the offline training job.
// The coefficients are hand-set to rank the training features the way the
// fitted forest does; they are not a substitute for a trained model.
//
// Usage:
//
//	go run ./cmd/genmodel -type logistic -out data/model/landslide_model.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/couchcryptid/landslide-risk-service/internal/domain"
	"github.com/couchcryptid/landslide-risk-service/internal/model"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("genmodel", flag.ContinueOnError)
	kind := fs.String("type", model.TypeLogistic, "bundle type: logistic or random_forest")
	out := fs.String("out", "-", "output path; - writes to stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var file model.File
	switch *kind {
	case model.TypeLogistic:
		file = demoLogistic()
	case model.TypeRandomForest:
		file = demoForest()
	default:
		return fmt.Errorf("unknown bundle type %q", *kind)
	}

	// Refuse to write anything the service would reject at startup.
	if _, err := model.New(file); err != nil {
		return fmt.Errorf("generated bundle is invalid: %w", err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	data = append(data, '\n')

	if *out == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil { //nolint:gosec // bundle is not secret
		return fmt.Errorf("write bundle: %w", err)
	}
	log.Printf("wrote %s bundle to %s", *kind, *out)
	return nil
}

func demoLogistic() model.File {
	return model.File{
		Name:     "landslide-demo-logistic",
		Version:  "demo-1",
		Features: domain.FeatureFields,
		Scaler: &model.ScalerSpec{
			Mean:  []float64{150, 35, 0.5, 0.5, 0.3, 3, 0.33, 0.33, 0.34},
			Scale: []float64{80, 15, 0.25, 0.25, 0.46, 2.5, 0.47, 0.47, 0.47},
		},
		Classifier: model.ClassifierSpec{
			Type:         model.TypeLogistic,
			Intercept:    -1.2,
			Coefficients: []float64{1.1, 0.9, 1.0, -0.7, 0.6, -0.5, -0.2, 0.1, 0.15},
		},
	}
}

// demoForest is a single depth-two tree: rainfall first, then slope on the
// wet branch and saturation on the dry one.
func demoForest() model.File {
	return model.File{
		Name:     "landslide-demo-forest",
		Version:  "demo-1",
		Features: domain.FeatureFields,
		Classifier: model.ClassifierSpec{
			Type: model.TypeRandomForest,
			Trees: []model.TreeSpec{{
				ChildrenLeft:  []int{1, 3, 5, -1, -1, -1, -1},
				ChildrenRight: []int{2, 4, 6, -1, -1, -1, -1},
				Feature:       []int{0, 2, 1, -2, -2, -2, -2},
				Threshold:     []float64{150, 0.6, 35, -2, -2, -2, -2},
				Value: [][]float64{
					{50, 50},
					{60, 20}, {20, 40},
					{55, 5}, {5, 15}, {15, 15}, {5, 25},
				},
			}},
		},
	}
}
