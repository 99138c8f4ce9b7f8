package decoder

import (
	"bytes"
	"io"

	"github.com/goccy/go-json"
	"github.com/hatlonely/sqljson/cfg/storage"
	"github.com/hatlonely/sqljson/document"
	"github.com/pkg/errors"
)

type JsonDecoderOptions struct {
	// 允许 // 和 /* */ 注释
	AllowComments bool `cfg:"allowComments"`
}

// JsonDecoder 按 token 流解码，对象保持书写顺序，整数解码为 int64
type JsonDecoder struct {
	allowComments bool
}

func NewJsonDecoderWithOptions(options *JsonDecoderOptions) *JsonDecoder {
	return &JsonDecoder{allowComments: options.AllowComments}
}

func (d *JsonDecoder) Decode(data []byte) (storage.Storage, error) {
	if d.allowComments {
		data = stripComments(data)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err == io.EOF {
		return storage.NewMapStorage(nil), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "json decode failed")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("json decode failed: unexpected data after top-level value")
	}
	return storage.NewMapStorage(v), nil
}

func (d *JsonDecoder) Encode(s storage.Storage) ([]byte, error) {
	buf, err := json.MarshalIndent(dataOf(s), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "json.MarshalIndent failed")
	}
	return buf, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := document.NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, errors.Errorf("object key must be a string, got %v", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			items := make([]any, 0)
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return items, nil
		}
		return nil, errors.Errorf("unexpected delimiter %v", t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, errors.Wrapf(err, "parse number [%s] failed", t)
		}
		return f, nil
	}
	return tok, nil
}

// stripComments 删除字符串之外的注释
func stripComments(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(data) {
				i++
				out = append(out, data[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++
		default:
			out = append(out, c)
		}
	}
	return out
}
