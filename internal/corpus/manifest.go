package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// manifestSchema validates the generator's manifest before a run starts.
// A manifest that fails validation is a configuration-level error and
// aborts the run before any document is processed.
const manifestSchema = `{
  "type": "object",
  "required": ["documents"],
  "properties": {
    "documents": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "script", "payload_path", "ground_truth"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "script": {"type": "string", "minLength": 1},
          "payload_path": {"type": "string", "minLength": 1},
          "ground_truth": {
            "type": "array",
            "items": {"type": "string"}
          }
        }
      }
    }
  }
}`

type manifest struct {
	Documents []Document `json:"documents"`
}

// LoadManifest reads and validates a manifest file, returning its
// documents in manifest order. Relative payload paths are resolved
// against the manifest's directory.
func LoadManifest(path string) ([]Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("manifest.json", strings.NewReader(manifestSchema)); err != nil {
		return nil, fmt.Errorf("failed to load manifest schema: %w", err)
	}
	schema, err := compiler.Compile("manifest.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile manifest schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("manifest is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("manifest does not match schema: %w", err)
	}

	var m manifest
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	if err := checkUniqueIDs(m.Documents); err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i := range m.Documents {
		if !filepath.IsAbs(m.Documents[i].PayloadPath) {
			m.Documents[i].PayloadPath = filepath.Join(base, m.Documents[i].PayloadPath)
		}
	}
	return m.Documents, nil
}

func checkUniqueIDs(docs []Document) error {
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("duplicate document id %q in manifest", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

// Payload reads the document's image or PDF bytes from disk.
func (d Document) Payload() ([]byte, error) {
	data, err := os.ReadFile(d.PayloadPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload for %s: %w", d.ID, err)
	}
	return data, nil
}
