package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object whose members serialize in slice order. The
// consuming UI engine addresses elements by arbitrary string keys, so the
// documents are built as ordered member lists instead of maps.
type Object []Member

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", m.Key, err)
		}
		value, err := json.Marshal(m.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value of %q: %w", m.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Offset is a pair of percentage offsets.
type Offset struct {
	X int
	Y int
}

func (o Offset) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Strings())
}

func (o Offset) Strings() [2]string {
	return [2]string{percent(o.X), percent(o.Y)}
}

func percent(v int) string {
	return fmt.Sprintf("%d%%", v)
}

var fullSize = [2]string{"100%", "100%"}

// Encode renders a document as indented JSON.
func Encode(doc any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
