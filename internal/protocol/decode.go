package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var clientSchemas = map[string]string{
	TypeHello:    "hello.schema.json",
	TypeTick:     "tick.schema.json",
	TypeInteract: "interact.schema.json",
}

// Decoder validates client messages against the embedded JSON schemas
// before decoding them. It is safe for concurrent use.
type Decoder struct {
	schemas map[string]*jsonschema.Schema
}

func NewDecoder() (*Decoder, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	d := &Decoder{schemas: make(map[string]*jsonschema.Schema, len(clientSchemas))}
	for typ, name := range clientSchemas {
		b, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, err
		}
		url := "mem://schemas/" + name
		if err := c.AddResource(url, bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("add %s: %w", name, err)
		}
		s, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		d.schemas[typ] = s
	}
	return d, nil
}

// Decode validates b and returns *HelloMsg, *TickMsg or *InteractMsg.
// Failures are returned as *Error.
func (d *Decoder) Decode(b []byte) (any, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return nil, badRequest("invalid json")
	}
	s, ok := d.schemas[base.Type]
	if !ok {
		return nil, badRequest("unknown message type " + base.Type)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, badRequest("invalid json")
	}
	if err := s.Validate(doc); err != nil {
		return nil, badRequest(err.Error())
	}

	var msg any
	switch base.Type {
	case TypeHello:
		msg = &HelloMsg{}
	case TypeTick:
		msg = &TickMsg{}
	case TypeInteract:
		msg = &InteractMsg{}
	}
	if err := json.Unmarshal(b, msg); err != nil {
		return nil, badRequest(err.Error())
	}
	return msg, nil
}
