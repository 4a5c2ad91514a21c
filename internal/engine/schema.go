package engine

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://stemverse.local/schemas/"

var schemas = mustCompileSchemas()

func mustCompileSchemas() map[string]*jsonschema.Schema {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	for _, entry := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			panic(err)
		}
		if err := c.AddResource(schemaBaseURL+entry.Name(), strings.NewReader(string(data))); err != nil {
			panic(fmt.Sprintf("schema %s: %v", entry.Name(), err))
		}
	}
	out := make(map[string]*jsonschema.Schema, len(entries))
	for _, entry := range entries {
		compiled, err := c.Compile(schemaBaseURL + entry.Name())
		if err != nil {
			panic(fmt.Sprintf("schema %s: %v", entry.Name(), err))
		}
		out[strings.TrimSuffix(entry.Name(), ".json")] = compiled
	}
	return out
}

// cleanYAML strips the code fences models like to wrap YAML in.
func cleanYAML(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```yaml")
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decode parses a YAML (or JSON) model answer, validates it against the
// named schema and unmarshals it into out.
func decode(schemaName, text string, out any) error {
	schema, ok := schemas[schemaName]
	if !ok {
		return fmt.Errorf("unknown schema %q", schemaName)
	}
	clean := cleanYAML(text)

	var raw any
	if err := yaml.Unmarshal([]byte(clean), &raw); err != nil {
		return fmt.Errorf("%w: failed to parse YAML: %v\nOutput was: %s", ErrSchema, err, clean)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchema, schemaName, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}
