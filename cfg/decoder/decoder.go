package decoder

import (
	"path/filepath"
	"strings"

	"github.com/hatlonely/sqljson/cfg/storage"
	"github.com/hatlonely/sqljson/ref"
	"github.com/pkg/errors"
)

func init() {
	ref.MustRegisterT[*JsonDecoder](NewJsonDecoderWithOptions)
	ref.MustRegisterT[*YamlDecoder](NewYamlDecoderWithOptions)
	ref.MustRegisterT[*TomlDecoder](NewTomlDecoderWithOptions)
}

// Decoder 在字节和 Storage 之间转换
// 解码结果中的对象为 *document.Object，保留书写顺序；数组为 []any
type Decoder interface {
	Decode(data []byte) (storage.Storage, error)
	Encode(s storage.Storage) ([]byte, error)
}

func NewDecoderWithOptions(options *ref.TypeOptions) (Decoder, error) {
	d, err := ref.NewWithTypeOptions[Decoder]("github.com/hatlonely/sqljson/cfg/decoder", options)
	if err != nil {
		return nil, errors.WithMessage(err, "create decoder failed")
	}
	return d, nil
}

// TypeOptionsByExtension 根据文件后缀选择解码器
func TypeOptionsByExtension(filename string) (*ref.TypeOptions, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return &ref.TypeOptions{Type: "JsonDecoder", Options: &JsonDecoderOptions{}}, nil
	case ".json5", ".jsonc":
		return &ref.TypeOptions{Type: "JsonDecoder", Options: &JsonDecoderOptions{AllowComments: true}}, nil
	case ".yaml", ".yml":
		return &ref.TypeOptions{Type: "YamlDecoder", Options: &YamlDecoderOptions{Indent: 2}}, nil
	case ".toml":
		return &ref.TypeOptions{Type: "TomlDecoder", Options: &TomlDecoderOptions{Indent: "  "}}, nil
	}
	return nil, errors.Errorf("unsupported file extension [%s]", filepath.Ext(filename))
}

func dataOf(s storage.Storage) any {
	if s == nil {
		return nil
	}
	return s.Data()
}
