package catalog

import (
	"bytes"
	"embed"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/solatis/estimator/internal/types"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	profilesSchema = "schemas/location_profiles.schema.json"
	rulesSchema    = "schemas/rules.schema.json"
)

var schemas struct {
	once     sync.Once
	profiles *jsonschema.Schema
	rules    *jsonschema.Schema
	err      error
}

func compiledSchemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	schemas.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		for _, name := range []string{profilesSchema, rulesSchema} {
			data, err := schemaFS.ReadFile(name)
			if err != nil {
				schemas.err = eris.Wrapf(err, "read schema %s", name)
				return
			}
			if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
				schemas.err = eris.Wrapf(err, "add schema %s", name)
				return
			}
		}
		if schemas.profiles, schemas.err = compiler.Compile(profilesSchema); schemas.err != nil {
			return
		}
		schemas.rules, schemas.err = compiler.Compile(rulesSchema)
	})
	return schemas.profiles, schemas.rules, schemas.err
}

// ParseProfiles decodes and validates a location profiles document.
func ParseProfiles(data []byte, format Format) (*types.ProfilesDocument, error) {
	schema, _, err := compiledSchemas()
	if err != nil {
		return nil, err
	}
	var doc types.ProfilesDocument
	if err := parseDocument(data, format, schema, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseRules decodes and validates a rules document. Expressions are
// decoded but not compiled.
func ParseRules(data []byte, format Format) (*types.RulesDocument, error) {
	_, schema, err := compiledSchemas()
	if err != nil {
		return nil, err
	}
	var doc types.RulesDocument
	if err := parseDocument(data, format, schema, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func parseDocument(data []byte, format Format, schema *jsonschema.Schema, v any) error {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return eris.Wrap(types.ErrInvalidDocument, err.Error())
		}
		data = converted
	}

	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return eris.Wrap(types.ErrInvalidDocument, err.Error())
	}
	if err := schema.Validate(tree); err != nil {
		return eris.Wrap(types.ErrInvalidDocument, err.Error())
	}
	if err := types.DecodeStrict(data, v); err != nil {
		if eris.Is(err, types.ErrInvalidDocument) {
			return err
		}
		return eris.Wrap(types.ErrInvalidDocument, err.Error())
	}
	return nil
}

// yamlToJSON re-encodes a YAML document as JSON, keeping mapping key order.
func yamlToJSON(data []byte) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, eris.Wrap(err, "parse yaml")
	}
	var buf bytes.Buffer
	if err := writeNode(&buf, &root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeNode(buf, n.Content[0])

	case yaml.AliasNode:
		return writeNode(buf, n.Alias)

	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeNode(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return eris.Wrapf(err, "line %d", n.Line)
		}
		out, err := json.Marshal(v)
		if err != nil {
			return eris.Wrapf(err, "line %d", n.Line)
		}
		buf.Write(out)
		return nil
	}
	return eris.Errorf("line %d: unsupported yaml node", n.Line)
}
