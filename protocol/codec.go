package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/gear6io/gpsd4go/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const classField = "class"

// Decode parses one gpsd line into its concrete message. Fields the schema
// does not know are ignored.
func Decode(line []byte) (Message, error) {
	line = bytes.TrimSpace(line)
	if !gjson.ValidBytes(line) {
		return nil, errors.New(ErrMalformedPayload, "line is not valid JSON").
			AddContext("line", preview(line))
	}

	root := gjson.ParseBytes(line)
	if !root.IsObject() {
		return nil, errors.New(ErrMalformedPayload, "line is not a JSON object").
			AddContext("line", preview(line))
	}

	class := root.Get(classField)
	if class.Type != gjson.String {
		return nil, errors.New(ErrMalformedPayload, "missing class property").
			AddContext("line", preview(line))
	}

	t, ok := TypeForTag(class.Str)
	if !ok {
		return nil, errors.Newf(ErrUnknownType, "unknown message class %q", class.Str).
			AddContext("class", class.Str)
	}

	msg, err := New(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(line, msg); err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, err, "decode %s", class.Str).
			AddContext("line", preview(line))
	}
	return msg, nil
}

// Marshal renders msg as a gpsd JSON object with its class property.
func Marshal(msg Message) ([]byte, error) {
	tag := TagOf(msg.Type())
	if tag == "" {
		return nil, errors.Newf(ErrUnknownType, "type %s has no wire tag", msg.Type())
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(ErrEncodeFailed, err, "marshal %s", tag)
	}
	body, err = sjson.SetBytes(body, classField, tag)
	if err != nil {
		return nil, errors.Wrapf(ErrEncodeFailed, err, "set class on %s", tag)
	}
	return body, nil
}

// Encode renders cmd in the command syntax: ?TAG=<json>.
func Encode(cmd Command) (string, error) {
	body, err := Marshal(cmd)
	if err != nil {
		return "", err
	}
	return "?" + TagOf(cmd.Type()) + "=" + string(body), nil
}

// Query renders the argument-less form ?TAG; that gpsd expects for
// VERSION, DEVICES and POLL.
func Query(t Type) (string, error) {
	if !IsA(t, TypeCommand) || !IsConcrete(t) {
		return "", errors.Newf(ErrUnknownType, "type %s is not a command", t)
	}
	return "?" + TagOf(t) + ";", nil
}

func preview(line []byte) string {
	const limit = 120
	if len(line) > limit {
		return string(line[:limit]) + "..."
	}
	return string(line)
}
