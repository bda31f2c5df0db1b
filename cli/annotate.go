package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ragersky/pdfsigner"
	"github.com/ragersky/pdfsigner/annotation"
	"github.com/ragersky/pdfsigner/config"
)

var (
	configPath string
	marksPath  string
	outputPath string
)

// AnnotateCommand bakes a JSON annotation set into a PDF.
func AnnotateCommand() {
	annotateFlags := flag.NewFlagSet("annotate", flag.ExitOnError)

	annotateFlags.StringVar(&configPath, "config", "", "Path to the config file")
	annotateFlags.StringVar(&marksPath, "marks", "", "Path to the annotation set (JSON)")
	annotateFlags.StringVar(&outputPath, "out", "", "Output file (default: prefixed input name)")

	annotateFlags.Usage = func() {
		fmt.Printf("Usage: %s annotate -marks marks.json [options] <input.pdf>\n\n", os.Args[0])
		fmt.Println("Bake an annotation set into a PDF file")
		fmt.Println("\nOptions:")
		annotateFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s annotate -marks review.json contract.pdf\n", os.Args[0])
		fmt.Printf("  %s annotate -marks review.json -out signed.pdf contract.pdf\n", os.Args[0])
	}

	if err := annotateFlags.Parse(os.Args[2:]); err != nil {
		log.Printf("Failed to parse annotate flags: %v", err)
		osExit(1)
	}

	if marksPath == "" || len(annotateFlags.Args()) < 1 {
		annotateFlags.Usage()
		osExit(1)
		return
	}

	AnnotatePDF(annotateFlags.Arg(0), marksPath, outputPath, configPath)
}

// AnnotatePDF is overridable for tests.
var AnnotatePDF = annotatePDFImpl

func annotatePDFImpl(input, marks, output, configFile string) {
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}

	doc, err := pdfsigner.OpenFile(input)
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}

	snap, err := loadSnapshot(marks)
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}

	editor := pdfsigner.NewEditor(doc, cfg, log.Default())
	editor.Store().Restore(snap)

	result, err := editor.Export(context.Background())
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}
	if result.Skipped > 0 {
		log.Printf("warning: %d annotation(s) referenced missing pages and were dropped", result.Skipped)
	}

	if output == "" {
		output = result.Filename
	}
	if err := os.WriteFile(output, result.Data, 0o644); err != nil {
		log.Println(err)
		osExit(1)
		return
	}
	log.Println("Annotated PDF written to " + output)
}

func loadSnapshot(path string) (annotation.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return annotation.Snapshot{}, err
	}
	var snap annotation.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return annotation.Snapshot{}, fmt.Errorf("annotation set %s: %w", path, err)
	}
	return snap, nil
}
