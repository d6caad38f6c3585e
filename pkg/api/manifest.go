package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Manifest describes the chunks of a build after linking: which modules each
// chunk contains, in what order, and which bindings cross chunk boundaries.
//
//	chunks:
//	  - name: main
//	    fileName: main.js
//	    isEntry: true
//	    modules:
//	      - path: build/src/a.js
//	        map: build/src/a.js.map
//	        original: src/a.ts
//	    imports:
//	      - chunk: shared
//	        bindings:
//	          - { imported: helper, local: helper }
//	    exports:
//	      - { local: a, exported: default }
type Manifest struct {
	Chunks []ManifestChunk `yaml:"chunks"`
}

type ManifestChunk struct {
	Name     string `yaml:"name"`
	FileName string `yaml:"fileName"`
	IsEntry  bool   `yaml:"isEntry,omitempty"`

	Modules []ManifestModule `yaml:"modules"`
	Imports []ManifestImport `yaml:"imports,omitempty"`
	Exports []ManifestExport `yaml:"exports,omitempty"`
}

type ManifestModule struct {
	// Defaults to the path relative to the working directory
	ID string `yaml:"id,omitempty"`

	// The transformed code of the module. Paths are relative to the working
	// directory unless absolute.
	Path string `yaml:"path"`

	// The source map of the transformed code, if any
	Map string `yaml:"map,omitempty"`

	// The file the code was transformed from, embedded as "sourcesContent".
	// Defaults to "path".
	Original string `yaml:"original,omitempty"`

	// Set for modules that tree shaking removed entirely
	Empty bool `yaml:"empty,omitempty"`
}

type ManifestImport struct {
	// The name of the imported chunk
	Chunk    string                  `yaml:"chunk"`
	Bindings []ManifestImportBinding `yaml:"bindings,omitempty"`
}

type ManifestImportBinding struct {
	// "*" imports the namespace, which requires "local"
	Imported string `yaml:"imported"`

	// Defaults to "imported"
	Local string `yaml:"local,omitempty"`
}

type ManifestExport struct {
	Local    string `yaml:"local"`
	Exported string `yaml:"exported,omitempty"`
}

// ParseManifest decodes and validates a manifest. Unknown keys are errors so
// that typos don't silently drop modules.
func ParseManifest(data []byte) (*Manifest, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var manifest Manifest
	if err := decoder.Decode(&manifest); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if err := manifest.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &manifest, nil
}

func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

func (m *Manifest) validate() error {
	names := make(map[string]bool, len(m.Chunks))
	fileNames := make(map[string]bool, len(m.Chunks))

	for i, chunk := range m.Chunks {
		if chunk.Name == "" {
			return fmt.Errorf("chunk %d has no name", i)
		}
		if names[chunk.Name] {
			return fmt.Errorf("duplicate chunk name %q", chunk.Name)
		}
		names[chunk.Name] = true

		if chunk.FileName == "" {
			return fmt.Errorf("chunk %q has no file name", chunk.Name)
		}
		if fileNames[chunk.FileName] {
			return fmt.Errorf("chunks share the file name %q", chunk.FileName)
		}
		fileNames[chunk.FileName] = true

		for j, module := range chunk.Modules {
			if module.Path == "" {
				return fmt.Errorf("module %d of chunk %q has no path", j, chunk.Name)
			}
		}
	}

	// Imports may refer to chunks that come later
	for _, chunk := range m.Chunks {
		for _, imp := range chunk.Imports {
			if !names[imp.Chunk] {
				return fmt.Errorf("chunk %q imports unknown chunk %q", chunk.Name, imp.Chunk)
			}
			for _, binding := range imp.Bindings {
				if binding.Imported == "" {
					return fmt.Errorf("chunk %q imports a binding without a name from chunk %q", chunk.Name, imp.Chunk)
				}

				// "import * as" needs a name to bind the namespace to
				if binding.Imported == "*" && (binding.Local == "" || binding.Local == "*") {
					return fmt.Errorf("chunk %q imports the namespace of chunk %q without a local name", chunk.Name, imp.Chunk)
				}
			}
		}
	}
	return nil
}
