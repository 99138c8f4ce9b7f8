package document

import (
	"bytes"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format 文档编码格式
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgPack Format = "msgpack"
)

// Encode 按指定格式编码文档，空格式默认为 JSON
func Encode(v any, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return json.Marshal(v)
	case FormatYAML:
		return yaml.Marshal(v)
	case FormatMsgPack:
		return msgpack.Marshal(v)
	}
	return nil, errors.Errorf("unsupported format [%s]", format)
}

// MarshalJSON 按插入顺序输出键
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, errors.Wrapf(err, "marshal key [%s] failed", k)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *Array) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	if a.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.Items)
}

func (o *Object) MarshalYAML() (any, error) {
	if o == nil {
		return nil, nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range o.keys {
		kn, vn := &yaml.Node{}, &yaml.Node{}
		if err := kn.Encode(k); err != nil {
			return nil, err
		}
		if err := vn.Encode(o.values[k]); err != nil {
			return nil, errors.Wrapf(err, "encode key [%s] failed", k)
		}
		node.Content = append(node.Content, kn, vn)
	}
	return node, nil
}

func (a *Array) MarshalYAML() (any, error) {
	if a == nil {
		return nil, nil
	}
	if a.Items == nil {
		return []any{}, nil
	}
	return a.Items, nil
}

func (o *Object) EncodeMsgpack(enc *msgpack.Encoder) error {
	if o == nil {
		return enc.EncodeNil()
	}
	if err := enc.EncodeMapLen(len(o.keys)); err != nil {
		return err
	}
	for _, k := range o.keys {
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := enc.Encode(o.values[k]); err != nil {
			return errors.Wrapf(err, "encode key [%s] failed", k)
		}
	}
	return nil
}

func (a *Array) EncodeMsgpack(enc *msgpack.Encoder) error {
	if a == nil {
		return enc.EncodeNil()
	}
	if err := enc.EncodeArrayLen(len(a.Items)); err != nil {
		return err
	}
	for _, item := range a.Items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}
