package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chazu/trestle/pkg/assembly"
	"github.com/chazu/trestle/pkg/errors"
)

// LoadConnections reads a connection map: an object from component name to
// the names it connects to. Files ending in .yaml or .yml are YAML, the rest
// JSON.
//
//	Table_Top: [Table_Leg_1, Table_Leg_2]
//	Chair_Backrest: [Chair_Seat]
func LoadConnections(path string) (assembly.Connections, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "connections %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	yamlFile := false
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		yamlFile = true
	}
	return ParseConnections(data, yamlFile)
}

// ParseConnections decodes a connection map from YAML or JSON.
func ParseConnections(data []byte, isYAML bool) (assembly.Connections, error) {
	var raw map[string][]string
	if isYAML {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode YAML connections")
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode JSON connections")
		}
	}

	conns := make(assembly.Connections, len(raw))
	for a, targets := range raw {
		if a == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "connection with empty component name")
		}
		for _, b := range targets {
			conns.Add(a, b)
		}
	}
	return conns, nil
}
