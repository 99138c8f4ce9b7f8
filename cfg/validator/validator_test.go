package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sourceOptions struct {
	Driver string `cfg:"driver" validate:"required,oneof=mysql sqlite3"`
	DSN    string `cfg:"dsn" validate:"required"`
	Pool   int    `cfg:"pool" validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		object  any
		wantErr string
	}{
		{name: "合法", object: &sourceOptions{Driver: "sqlite3", DSN: ":memory:"}},
		{name: "缺少必填字段", object: &sourceOptions{Driver: "sqlite3"}, wantErr: "dsn"},
		{name: "枚举不匹配", object: sourceOptions{Driver: "oracle", DSN: "x"}, wantErr: "driver"},
		{name: "nil 指针", object: (*sourceOptions)(nil)},
		{name: "非结构体", object: 1},
		{name: "nil", object: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.object)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
