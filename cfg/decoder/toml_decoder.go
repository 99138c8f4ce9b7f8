package decoder

import (
	"bytes"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hatlonely/sqljson/cfg/storage"
	"github.com/hatlonely/sqljson/document"
	"github.com/pkg/errors"
)

type TomlDecoderOptions struct {
	Indent string `cfg:"indent" def:"  "`
}

// TomlDecoder 键的顺序取自 toml.MetaData.Keys
type TomlDecoder struct {
	indent string
}

func NewTomlDecoderWithOptions(options *TomlDecoderOptions) *TomlDecoder {
	return &TomlDecoder{indent: options.Indent}
}

func (d *TomlDecoder) Decode(data []byte) (storage.Storage, error) {
	var m map[string]any
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, errors.Wrap(err, "toml.Decode failed")
	}
	order := map[string]int{}
	for i, k := range md.Keys() {
		path := strings.Join(k, ".")
		if _, ok := order[path]; !ok {
			order[path] = i
		}
	}
	return storage.NewMapStorage(orderedToml(m, "", order)), nil
}

func (d *TomlDecoder) Encode(s storage.Storage) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = d.indent
	if err := enc.Encode(document.ToNative(dataOf(s))); err != nil {
		return nil, errors.Wrap(err, "toml encode failed")
	}
	return buf.Bytes(), nil
}

func orderedToml(v any, prefix string, order map[string]int) any {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.SliceStable(keys, func(i, j int) bool {
			oi, iok := order[join(prefix, keys[i])]
			oj, jok := order[join(prefix, keys[j])]
			if iok && jok {
				return oi < oj
			}
			if iok != jok {
				return iok
			}
			return keys[i] < keys[j]
		})
		obj := document.NewObject()
		for _, k := range keys {
			obj.Set(k, orderedToml(x[k], join(prefix, k), order))
		}
		return obj
	case []map[string]any:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = orderedToml(item, prefix, order)
		}
		return items
	case []any:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = orderedToml(item, prefix, order)
		}
		return items
	}
	return v
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
