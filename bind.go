package autoconf

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-autoconf/internal/hydrate"
	"github.com/goliatone/go-autoconf/layering"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func propertyValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get(hydrate.TagName), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
	return validate
}

// Bind decodes the properties under prefix into T. Defaults are ordered
// strongest first and deep-merged; keys present in the snapshot override
// them. Fields are matched by their `mapstructure` tag, then checked against
// their `validate` tag. Fields implementing encoding.TextUnmarshaler (such as
// netip.AddrPort) are parsed from their string value. Failures wrap
// ErrInvalidProperties.
func Bind[T any](snapshot Snapshot, prefix string, defaults ...T) (T, error) {
	var zero T
	base := layering.MergeLayers(defaults...)

	payload, err := hydrate.Nest(snapshot.WithPrefix(prefix).Map())
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidProperties, err)
	}

	decoder := hydrate.NewDecoder[T](
		hydrate.WithDecodeHook[T](mapstructure.TextUnmarshallerHookFunc()),
		hydrate.WithPostHook[T](validateProperties[T]),
	)
	bound, err := decoder.DecodeInto(hydrate.Context{Prefix: prefix}, payload, base)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidProperties, err)
	}
	return bound, nil
}

// MustBind is Bind that panics on error.
func MustBind[T any](snapshot Snapshot, prefix string, defaults ...T) T {
	bound, err := Bind(snapshot, prefix, defaults...)
	if err != nil {
		panic(err)
	}
	return bound
}

func validateProperties[T any](ctx hydrate.Context, value *T) error {
	if reflect.Indirect(reflect.ValueOf(value)).Kind() != reflect.Struct {
		return nil
	}
	err := propertyValidator().Struct(value)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := fe.Namespace()
		if _, rest, ok := strings.Cut(key, "."); ok {
			key = rest
		}
		problems = append(problems, fmt.Sprintf("%s failed '%s'", joinPath(ctx.Prefix, key), fe.Tag()))
	}
	return errors.New(strings.Join(problems, "; "))
}
