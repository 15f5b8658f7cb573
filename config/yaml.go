package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// decodeStrictYaml decodes yaml into out, rejecting unknown keys.
func decodeStrictYaml(blob []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(blob))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("can't decode yaml config: %w", err)
	}
	return nil
}
