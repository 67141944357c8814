package repositories

import (
	"encoding/json"
	"fmt"

	"haventory/internal/models"

	"github.com/google/uuid"
)

// CurrentSchemaVersion is the schema_version written by Save.
const CurrentSchemaVersion = 1

type migration func(doc map[string]any) (map[string]any, error)

// migrations[n] upgrades a document from version n to n+1.
var migrations = map[int]migration{
	0: migrate0To1,
}

// migrate0To1 guarantees the items and locations maps exist.
func migrate0To1(doc map[string]any) (map[string]any, error) {
	for _, key := range []string{"items", "locations"} {
		if _, ok := doc[key].(map[string]any); !ok {
			doc[key] = map[string]any{}
		}
	}
	return doc, nil
}

// MigrateDocument applies forward-only migrations from version to CurrentSchemaVersion.
func MigrateDocument(doc map[string]any, version int) (map[string]any, error) {
	if doc == nil {
		doc = map[string]any{}
	}
	if version > CurrentSchemaVersion {
		return nil, fmt.Errorf("schema version %d is newer than supported version %d", version, CurrentSchemaVersion)
	}
	if version < 0 {
		return nil, fmt.Errorf("invalid schema version %d", version)
	}
	for v := version; v < CurrentSchemaVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			return nil, fmt.Errorf("no migration from schema version %d", v)
		}
		var err error
		if doc, err = step(doc); err != nil {
			return nil, fmt.Errorf("migrate %d to %d: %w", v, v+1, err)
		}
	}
	doc["schema_version"] = CurrentSchemaVersion
	return doc, nil
}

// DecodeDocument decodes a payload stored at version and migrates it to CurrentSchemaVersion.
// A nil version reads schema_version from the payload itself; a payload without one is version 0.
func DecodeDocument(payload []byte, version *int) (*models.Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	v := 0
	if version != nil {
		v = *version
	} else if stored, ok := raw["schema_version"].(float64); ok {
		v = int(stored)
	}
	migrated, err := MigrateDocument(raw, v)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(migrated)
	if err != nil {
		return nil, fmt.Errorf("encode migrated document: %w", err)
	}
	doc := emptyDocument()
	if err := json.Unmarshal(encoded, doc); err != nil {
		return nil, fmt.Errorf("decode migrated document: %w", err)
	}
	return doc, nil
}

func emptyDocument() *models.Document {
	return &models.Document{
		SchemaVersion: CurrentSchemaVersion,
		Items:         map[uuid.UUID]*models.Item{},
		Locations:     map[uuid.UUID]*models.Location{},
	}
}
