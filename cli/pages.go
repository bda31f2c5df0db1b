package cli

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ragersky/pdfsigner"
)

// PagesCommand prints the page count and per-page sizes of a PDF.
func PagesCommand() {
	pagesFlags := flag.NewFlagSet("pages", flag.ExitOnError)

	pagesFlags.Usage = func() {
		fmt.Printf("Usage: %s pages <input.pdf>\n\n", os.Args[0])
		fmt.Println("List page sizes of a PDF file")
	}

	if err := pagesFlags.Parse(os.Args[2:]); err != nil {
		log.Printf("Failed to parse pages flags: %v", err)
		osExit(1)
	}

	if len(pagesFlags.Args()) < 1 {
		pagesFlags.Usage()
		osExit(1)
		return
	}

	ListPages(pagesFlags.Arg(0))
}

// ListPages is overridable for tests.
var ListPages = listPagesImpl

func listPagesImpl(input string) {
	doc, err := pdfsigner.OpenFile(input)
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}

	fmt.Printf("%s: %d page(s)\n", doc.Name(), doc.NumPages())
	for n := 1; n <= doc.NumPages(); n++ {
		w, h, err := doc.PageSize(n)
		if err != nil {
			log.Println(err)
			osExit(1)
			return
		}
		fmt.Printf("  page %d: %.2f x %.2f\n", n, w, h)
	}
}
