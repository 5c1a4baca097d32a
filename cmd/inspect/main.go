// Command inspect prints the contents of a weights blob and a statistics
// file, and can run one sample prediction through the loaded model.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/Brownie44l1/bp-api/internal/engine"
	"github.com/Brownie44l1/bp-api/internal/model"
)

func main() {
	modelPath := flag.String("model", "", "path to model (.onnx or native weights blob)")
	format := flag.String("format", engine.FormatAuto, "model format: auto, onnx or native")
	statsPath := flag.String("stats", "", "path to normalization_stats.json")
	onnxLib := flag.String("onnx-lib", os.Getenv("ONNXRUNTIME_LIB"), "onnxruntime shared library")
	sample := flag.Bool("sample", false, "run a ramp/constant sample through the model")
	flag.Parse()

	if *modelPath == "" && *statsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	var stats model.Stats
	if *statsPath != "" {
		s, err := model.LoadStats(*statsPath)
		if err != nil {
			log.Fatalf("Failed to load stats: %v", err)
		}
		stats = s
		out, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Printf("stats: %s\n", out)
	}

	if *modelPath != "" && *format != engine.FormatONNX {
		if w, err := engine.ReadWeightsFile(*modelPath); err == nil {
			printWeights(w)
		} else if *format == engine.FormatNative {
			log.Fatalf("Failed to read weights: %v", err)
		}
	}

	if !*sample {
		return
	}
	if *modelPath == "" || *statsPath == "" {
		log.Fatal("-sample requires both -model and -stats")
	}

	eng, err := engine.Open(*format, *modelPath, engine.ONNXOptions{SharedLibrary: *onnxLib})
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}
	defer eng.Close()

	p, err := model.NewPredictor(stats, eng)
	if err != nil {
		log.Fatalf("%v", err)
	}

	req := model.PredictionRequest{
		PPG: make([]float64, model.WindowSize),
		ECG: make([]float64, model.WindowSize),
	}
	for i := range req.PPG {
		req.PPG[i] = float64(i)
		req.ECG[i] = 1
	}
	resp, err := p.Predict(req)
	if err != nil {
		log.Fatalf("Sample prediction failed: %v", err)
	}
	out, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Printf("sample (%s): %s\n", eng.Name(), out)
}

func printWeights(w *engine.Weights) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TENSOR\tSHAPE\tVALUES")
	for _, t := range w.Tensors {
		fmt.Fprintf(tw, "%s\t%v\t%d\n", t.Name, t.Shape, len(t.Data))
	}
	tw.Flush()

	if err := engine.CheckTopology(w); err != nil {
		fmt.Printf("topology: %v\n", err)
		return
	}
	fmt.Println("topology: ok")
}
