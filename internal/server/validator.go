package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas
var schemaFiles embed.FS

const schemaBase = "https://pokertable.dev/schemas/"

// commandFiles hold one $defs entry per command type.
var commandFiles = []string{"lobby.json", "seat.json", "play.json"}

// Validator checks inbound commands against the embedded JSON schemas.
type Validator struct {
	envelope *jsonschema.Schema
	commands map[MessageType]*jsonschema.Schema
}

// NewValidator compiles the envelope schema and every command schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	files := append([]string{"message.json"}, commandFiles...)
	raw := make(map[string][]byte, len(files))
	for _, name := range files {
		data, err := schemaFiles.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		if err := compiler.AddResource(schemaBase+name, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
		}
		raw[name] = data
	}

	envelope, err := compiler.Compile(schemaBase + "message.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile envelope schema: %w", err)
	}

	v := &Validator{envelope: envelope, commands: map[MessageType]*jsonschema.Schema{}}
	for _, name := range commandFiles {
		var doc struct {
			Defs map[string]json.RawMessage `json:"$defs"`
		}
		if err := json.Unmarshal(raw[name], &doc); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		for typ := range doc.Defs {
			if _, dup := v.commands[MessageType(typ)]; dup {
				return nil, fmt.Errorf("command %s defined twice", typ)
			}
			s, err := compiler.Compile(schemaBase + name + "#/$defs/" + typ)
			if err != nil {
				return nil, fmt.Errorf("failed to compile %s: %w", typ, err)
			}
			v.commands[MessageType(typ)] = s
		}
	}
	return v, nil
}

// Validate checks a raw frame and returns the decoded message.
func (v *Validator) Validate(frame []byte) (*Message, error) {
	var doc any
	if err := json.Unmarshal(frame, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := v.envelope.Validate(doc); err != nil {
		return nil, fmt.Errorf("message format validation failed: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	schema, ok := v.commands[msg.Type]
	if !ok {
		return &msg, fmt.Errorf("unknown message type: %s", msg.Type)
	}

	var data any = map[string]any{}
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return &msg, fmt.Errorf("invalid data: %w", err)
		}
	}
	if err := schema.Validate(data); err != nil {
		return &msg, fmt.Errorf("%s validation failed: %w", msg.Type, err)
	}
	return &msg, nil
}

// Commands lists the command types the validator accepts.
func (v *Validator) Commands() []MessageType {
	types := make([]MessageType, 0, len(v.commands))
	for t := range v.commands {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
