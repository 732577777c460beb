package frontmatter

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

var timeType = reflect.TypeOf(time.Time{})

// Decode maps opaque metadata onto a typed struct. Field names come from the
// `yaml` tag, input is weakly typed ("3" decodes into an int, a lone string
// into a slice) and any date-like value decodes into time.Time.
func Decode(metadata map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook:       toTimeHook,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return dec.Decode(metadata)
}

func toTimeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != timeType {
		return data, nil
	}
	switch v := data.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case fmt.Stringer:
		// go-toml local dates and times
		return cast.ToTimeE(v.String())
	default:
		return cast.ToTimeE(v)
	}
}
