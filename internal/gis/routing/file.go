package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"supmap-playback/internal/playback"
)

// LoadFile reads a route document from disk. YAML is used for .yaml and
// .yml files, JSON otherwise.
func LoadFile(name string) (playback.Route, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return playback.Route{}, fmt.Errorf("reading route file: %w", err)
	}

	var doc Document
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return playback.Route{}, fmt.Errorf("decoding route file %q: %w", name, err)
	}

	return doc.Route()
}

// Fetch loads the route from source, which is either an http(s) URL or a
// file path.
func Fetch(ctx context.Context, source string, opts ClientOptions) (playback.Route, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return NewClient(source, opts).FetchRoute(ctx)
	}
	return LoadFile(source)
}
