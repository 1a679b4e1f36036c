package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
)

func main() {
	fontDir := flag.String("dir", "fonts", "directory with .ttf/.otf files")
	outputFile := flag.String("out", "font_metadata.json", "metadata file to write")
	flag.Parse()

	fonts, err := autocard.ScanFontDir(*fontDir, util.NewLogger("development"))
	if err != nil {
		log.Fatalf("Failed to scan font directory: %v", err)
	}

	data, err := json.MarshalIndent(fonts, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal JSON: %v", err)
	}

	// The file can be read by the owner (you), read by users in the file's group, and read by anyone else on the system
	if err := os.WriteFile(*outputFile, data, 0644); err != nil {
		log.Fatalf("Failed to write JSON file: %v", err)
	}

	fmt.Printf("Saved metadata for %d fonts to %q\n", len(fonts), *outputFile)
}
