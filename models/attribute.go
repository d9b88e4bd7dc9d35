package models

// AttributeKind is the declared value type of a custom attribute.
type AttributeKind string

const (
	AttributeNumber AttributeKind = "Number"
	AttributeDate   AttributeKind = "Date"
	AttributeYesNo  AttributeKind = "Yes/No"
	AttributeText   AttributeKind = "Text"
)

// AttributeDefinition describes one dynamically defined custom attribute.
// Definitions are owned elsewhere; the pipeline reads them once per run
// and never mutates them.
type AttributeDefinition struct {
	ID           string        `json:"id" bson:"_id,omitempty"`
	Name         string        `json:"name" bson:"name"`
	EntityType   JobType       `json:"entity_type" bson:"entity_type"`
	Kind         AttributeKind `json:"kind" bson:"kind"`
	Required     bool          `json:"required" bson:"required"`
	DefaultValue interface{}   `json:"default_value,omitempty" bson:"default_value,omitempty"`
}
