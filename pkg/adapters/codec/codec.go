// Package codec provides the document encodings a bank can hold.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tagvault/pkg/core"
)

// Default returns the standard set of codecs keyed by name.
func Default(strict bool) map[string]core.Codec {
	return map[string]core.Codec{
		"json": NewJSON(strict),
		"cbor": NewCBOR(strict),
		"yaml": NewYAML(strict),
	}
}

// ByName returns the codec registered under name.
func ByName(name string, strict bool) (core.Codec, error) {
	c, ok := Default(strict)[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (available: %v)", name, Names())
	}
	return c, nil
}

// Names lists the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, 3)
	for name := range Default(false) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --- JSON Codec ---

// JSON encodes documents as compact JSON, the format every deployed tag carries.
type JSON struct {
	// Strict decodes numbers as json.Number to avoid float64 precision loss.
	Strict bool
}

// NewJSON creates a new JSON codec.
func NewJSON(strict bool) *JSON {
	return &JSON{Strict: strict}
}

func (c *JSON) Name() string { return "json" }

func (c *JSON) Encode(doc core.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(doc)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (c *JSON) Decode(data []byte) (core.Document, error) {
	var payload map[string]any
	decoder := json.NewDecoder(bytes.NewReader(data))
	if c.Strict {
		decoder.UseNumber()
	}
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("invalid json: trailing data")
	}
	if payload == nil {
		return nil, fmt.Errorf("invalid json: not an object")
	}
	return core.Document(payload), nil
}

// --- CBOR Codec ---

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		// Documents only use string keys; decode nested maps the way encoding/json does.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBOR encodes documents with Core Deterministic Encoding. It fits roughly a third
// more content into a bank than JSON.
type CBOR struct {
	Strict bool
}

// NewCBOR creates a new CBOR codec.
func NewCBOR(strict bool) *CBOR {
	return &CBOR{Strict: strict}
}

func (c *CBOR) Name() string { return "cbor" }

func (c *CBOR) Encode(doc core.Document) ([]byte, error) {
	return cborEnc.Marshal(map[string]any(doc))
}

func (c *CBOR) Decode(data []byte) (core.Document, error) {
	var payload map[string]any
	if err := cborDec.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid cbor: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("invalid cbor: not a map")
	}
	doc := core.Document(payload)
	if c.Strict {
		doc = normalize(doc).(core.Document)
	}
	return doc, nil
}

// --- YAML Codec ---

// YAML is meant for exporting documents to humans; it is rarely compact enough for a bank.
type YAML struct {
	Strict bool
}

// NewYAML creates a new YAML codec.
func NewYAML(strict bool) *YAML {
	return &YAML{Strict: strict}
}

func (c *YAML) Name() string { return "yaml" }

func (c *YAML) Encode(doc core.Document) ([]byte, error) {
	return yaml.Marshal(map[string]any(doc))
}

func (c *YAML) Decode(data []byte) (core.Document, error) {
	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("invalid yaml: not a mapping")
	}
	doc := core.Document(payload)
	if c.Strict {
		doc = normalize(doc).(core.Document)
	}
	return doc, nil
}

// normalize converts numeric types to json.Number so strict documents compare
// equal whichever codec produced them.
func normalize(val any) any {
	switch v := val.(type) {
	case core.Document:
		m := make(core.Document, len(v))
		for k, inner := range v {
			m[k] = normalize(inner)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, inner := range v {
			m[k] = normalize(inner)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, inner := range v {
			l[i] = normalize(inner)
		}
		return l
	case int:
		return json.Number(fmt.Sprintf("%d", v))
	case int64:
		return json.Number(fmt.Sprintf("%d", v))
	case uint64:
		return json.Number(fmt.Sprintf("%d", v))
	case float64:
		return json.Number(fmt.Sprintf("%v", v))
	default:
		return v
	}
}
