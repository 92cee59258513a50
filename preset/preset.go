// Package preset reads and writes voice presets as TOML or JSON documents.
//
// A document holds one table per component id plus optional "id" and
// "name" strings:
//
//	name = "Warm Pad"
//
//	[oscillator]
//	type = "sawtooth"
//
//	[filterEnvelope]
//	enabled = true
//	amount = 1200
//
// Sound-library modules that wrap the sections as {"data": {"data": {...}}}
// are unwrapped on decode.
package preset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cwbudde/algo-voice/voice"
)

// Format selects the document syntax.
type Format int

const (
	TOML Format = iota
	JSON
)

func (f Format) String() string {
	if f == JSON {
		return "json"
	}
	return "toml"
}

// ErrFormat is returned for unknown file extensions or format names.
var ErrFormat = errors.New("preset: unsupported format")

// ParseFormat resolves "toml" or "json".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "toml":
		return TOML, nil
	case "json":
		return JSON, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrFormat, name)
}

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Document is a named preset.
type Document struct {
	ID    string
	Name  string
	Sound voice.Preset
}

// Load reads the preset file at path, choosing the format by extension.
func Load(path string) (Document, error) {
	f, err := FormatOf(path)
	if err != nil {
		return Document{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("preset: %w", err)
	}
	defer file.Close()

	doc, err := Decode(file, f)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	if doc.ID == "" {
		doc.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// Decode parses a document.
func Decode(r io.Reader, f Format) (Document, error) {
	raw := map[string]any{}
	switch f {
	case TOML:
		if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
			return Document{}, fmt.Errorf("preset: decode toml: %w", err)
		}
	case JSON:
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return Document{}, fmt.Errorf("preset: decode json: %w", err)
		}
	default:
		return Document{}, fmt.Errorf("%w: %d", ErrFormat, f)
	}
	return fromMap(raw), nil
}

// DecodeString is Decode over a string.
func DecodeString(s string, f Format) (Document, error) {
	return Decode(strings.NewReader(s), f)
}

func fromMap(raw map[string]any) Document {
	var doc Document
	doc.ID, _ = raw["id"].(string)
	doc.Name, _ = raw["name"].(string)

	sections := raw
	if outer, ok := raw["data"].(map[string]any); ok {
		if inner, ok := outer["data"].(map[string]any); ok {
			sections = inner
		}
	}
	doc.Sound = voice.PresetFromMap(sections)
	return doc
}

// Encode writes doc in the flat section form.
func Encode(w io.Writer, doc Document, f Format) error {
	m := doc.Sound.Map()
	if doc.ID != "" {
		m["id"] = doc.ID
	}
	if doc.Name != "" {
		m["name"] = doc.Name
	}

	switch f {
	case TOML:
		if err := toml.NewEncoder(w).Encode(m); err != nil {
			return fmt.Errorf("preset: encode toml: %w", err)
		}
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("preset: encode json: %w", err)
		}
	default:
		return fmt.Errorf("%w: %d", ErrFormat, f)
	}
	return nil
}

// Save writes doc to path, choosing the format by extension.
func Save(path string, doc Document) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc, f); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("preset: %w", err)
	}
	return nil
}
