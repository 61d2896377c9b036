package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/promptgen/pkg/schema"
)

func main() {
	outDir := "schema"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatalf("Error creating %s: %v", outDir, err)
	}

	for _, kind := range schema.Kinds {
		data, err := schema.JSON(kind)
		if err != nil {
			log.Fatalf("Error generating %s schema: %v", kind, err)
		}
		path := filepath.Join(outDir, string(kind)+".schema.json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			log.Fatalf("Error writing schema file: %v", err)
		}
		log.Printf("Successfully generated %s schema at %s", kind, path)
	}
}
