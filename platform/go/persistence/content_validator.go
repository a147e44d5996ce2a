package persistence

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Column content types.
const (
	ContentTypeRichText     = "rich_text"
	ContentTypePhotoGallery = "photo_gallery"
	ContentTypeReferences   = "references"
)

var contentSchemas = map[string]string{
	ContentTypeRichText: `{
        "type": "object",
        "required": ["html"],
        "properties": {"html": {"type": "string"}}
    }`,
	ContentTypePhotoGallery: `{
        "type": "object",
        "required": ["photo_ids"],
        "properties": {
            "photo_ids": {"type": "array", "items": {"type": "string", "format": "uuid"}},
            "display_mode": {"enum": ["gallery", "carousel", "loop"]},
            "autoplay_speed": {"type": "integer", "minimum": 500},
            "show_captions": {"type": "boolean"}
        }
    }`,
	ContentTypeReferences: `{
        "type": "object",
        "required": ["references"],
        "properties": {
            "references": {
                "type": "array",
                "items": {
                    "type": "object",
                    "required": ["type", "id"],
                    "properties": {
                        "type": {"enum": ["activity", "event", "accommodation", "content_page", "location"]},
                        "id": {"type": "string", "format": "uuid"},
                        "name": {"type": "string"}
                    }
                }
            }
        }
    }`,
}

// ContentValidator checks column content_data against the JSON Schema of its content type.
// Schemas are compiled lazily and cached.
type ContentValidator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

func NewContentValidator() *ContentValidator {
	return &ContentValidator{cache: make(map[string]*jsonschema.Schema)}
}

// Validate returns an error describing the first schema violation, if any.
func (v *ContentValidator) Validate(contentType string, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("content data is required")
	}

	compiled, err := v.getOrCompile(contentType)
	if err != nil {
		return err
	}

	var document any
	if err := json.Unmarshal(payload, &document); err != nil {
		return fmt.Errorf("decode content data: %w", err)
	}

	if err := compiled.Validate(document); err != nil {
		return fmt.Errorf("content data does not match %s: %w", contentType, err)
	}
	return nil
}

func (v *ContentValidator) getOrCompile(contentType string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	compiled, ok := v.cache[contentType]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	source, ok := contentSchemas[contentType]
	if !ok {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if compiled, ok = v.cache[contentType]; ok {
		return compiled, nil
	}

	key := "memory://content/" + contentType + ".json"
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(key, strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("register schema %s: %w", key, err)
	}

	compiled, err := compiler.Compile(key)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", key, err)
	}

	v.cache[contentType] = compiled
	return compiled, nil
}
