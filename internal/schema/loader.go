package schema

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/rpattn/reportql/internal/domain"
)

// Load reads the operator-authored report schema from a JSON file. The
// schema is loaded once at process start and never mutated afterwards.
func Load(path string) (domain.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	log.Printf("[schema] loaded %d entities from %s", len(s), path)
	return s, nil
}

// Parse decodes a schema document, builds the per-entity lookup indexes and
// checks referential integrity.
func Parse(data []byte) (domain.Schema, error) {
	var s domain.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}
