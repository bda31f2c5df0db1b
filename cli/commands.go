// Package cli implements the pdfsigner command line: applying a saved
// annotation set to a document and inspecting page geometry.
package cli

import (
	"fmt"
	"os"
)

var osExit = os.Exit

// Run dispatches the top-level command.
func Run() {
	if len(os.Args) < 2 {
		Usage()
		return
	}

	switch os.Args[1] {
	case "annotate":
		AnnotateCommand()
	case "pages":
		PagesCommand()
	case "-h", "--help", "help":
		Usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		Usage()
	}
}

func Usage() {
	fmt.Printf("Usage: %s <command> [options] <args>\n\n", os.Args[0])
	fmt.Println("Commands:")
	fmt.Println("  annotate  Bake an annotation set into a PDF file")
	fmt.Println("  pages     List page sizes of a PDF file")
	fmt.Println("")
	fmt.Printf("Use '%s <command> -h' for command-specific help\n", os.Args[0])
	osExit(1)
}
