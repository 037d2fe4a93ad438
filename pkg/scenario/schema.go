package scenario

import (
	"bytes"
	_ "embed"
	"encoding/json"

	"github.com/samber/oops"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/daviddao/tickledger/pkg/model"
)

//go:embed rawevent.schema.json
var rawEventSchemaJSON string

const rawEventSchemaURL = "https://tickledger.local/schemas/rawevent.schema.json"

var rawEventSchema = jsonschema.MustCompileString(rawEventSchemaURL, rawEventSchemaJSON)

// DecodeEvent parses a raw event from JSON. The document is checked against
// the raw event schema first, so unknown fields, a missing countdown or an
// unknown operation are reported with the offending JSON path.
func DecodeEvent(data []byte) (model.RawEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return model.RawEvent{}, oops.Code("EVENT_DECODE_FAILED").Wrap(err)
	}
	if err := rawEventSchema.Validate(doc); err != nil {
		return model.RawEvent{}, oops.Code("EVENT_SCHEMA_INVALID").Wrap(err)
	}

	var raw model.RawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.RawEvent{}, oops.Code("EVENT_DECODE_FAILED").Wrap(err)
	}
	if raw.Outcomes == nil {
		raw.Outcomes = []model.Outcome{}
	}
	return raw, nil
}
