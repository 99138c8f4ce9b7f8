package decoder

import (
	"bytes"

	"github.com/hatlonely/sqljson/cfg/storage"
	"github.com/hatlonely/sqljson/document"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type YamlDecoderOptions struct {
	Indent int `cfg:"indent" def:"2"`
}

// YamlDecoder 通过 yaml.Node 解码，映射保持书写顺序
type YamlDecoder struct {
	indent int
}

func NewYamlDecoderWithOptions(options *YamlDecoderOptions) *YamlDecoder {
	indent := options.Indent
	if indent <= 0 {
		indent = 2
	}
	return &YamlDecoder{indent: indent}
}

func (d *YamlDecoder) Decode(data []byte) (storage.Storage, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(err, "yaml.Unmarshal failed")
	}
	v, err := fromYamlNode(&node)
	if err != nil {
		return nil, err
	}
	return storage.NewMapStorage(v), nil
}

func (d *YamlDecoder) Encode(s storage.Storage) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(d.indent)
	if err := enc.Encode(dataOf(s)); err != nil {
		return nil, errors.Wrap(err, "yaml encode failed")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "yaml encode failed")
	}
	return buf.Bytes(), nil
}

func fromYamlNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromYamlNode(node.Content[0])
	case yaml.AliasNode:
		return fromYamlNode(node.Alias)
	case yaml.MappingNode:
		obj := document.NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			val, err := fromYamlNode(v)
			if err != nil {
				return nil, err
			}
			// 合并键 <<: *base 展开到当前对象
			if k.Tag == "!!merge" {
				if base, ok := val.(*document.Object); ok {
					base.Range(func(key string, value any) bool {
						if !obj.Has(key) {
							obj.Set(key, value)
						}
						return true
					})
				}
				continue
			}
			obj.Set(k.Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, c := range node.Content {
			val, err := fromYamlNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, val)
		}
		return items, nil
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, errors.Wrapf(err, "decode yaml scalar at line %d failed", node.Line)
	}
	return v, nil
}
