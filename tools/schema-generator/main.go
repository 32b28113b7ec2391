// Command schema-generator writes the seqrkit.yml JSON schema to
// schema/seqrkit.schema.json. It runs from config via go generate.
package main

import (
	"os"
	"path/filepath"

	"github.com/grovetools/seqrkit/config"
	"github.com/grovetools/seqrkit/logging"
)

func main() {
	logger := logging.NewLogger("schema-generator")

	schemaBytes, err := config.GenerateSchema()
	if err != nil {
		logger.WithError(err).Fatal("error generating schema")
	}

	outputDir := "schema"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		logger.WithError(err).Fatal("error creating schema directory")
	}

	outputPath := filepath.Join(outputDir, "seqrkit.schema.json")
	if err := os.WriteFile(outputPath, schemaBytes, 0644); err != nil {
		logger.WithError(err).Fatal("error writing schema file")
	}

	logger.WithField("path", outputPath).Info("generated config schema")
}
