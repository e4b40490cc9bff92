package binder

import (
	"fmt"
	"net/http"
	"reflect"
)

// DefaultMaxRawSize bounds raw bodies such as payment webhooks (256KB).
const DefaultMaxRawSize = 256 << 10

var bytesType = reflect.TypeOf([]byte(nil))

// Raw copies the unparsed request body into the []byte field tagged `body:"raw"`.
// Requests bigger than maxSize fail with ErrBodyTooLarge; maxSize <= 0 uses DefaultMaxRawSize.
func Raw(maxSize int64) func(r *http.Request, v any) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxRawSize
	}

	return func(r *http.Request, v any) error {
		rv, err := structValue(v, ErrFailedToReadBody)
		if err != nil {
			return err
		}

		rt := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			f := rt.Field(i)
			if f.Tag.Get("body") != "raw" || !rv.Field(i).CanSet() {
				continue
			}
			if f.Type != bytesType {
				return fmt.Errorf("%w: field %s must be []byte", ErrFailedToReadBody, f.Name)
			}

			data, err := readLimited(r.Body, maxSize)
			if err != nil {
				return err
			}
			rv.Field(i).SetBytes(data)
			return nil
		}

		return ErrBinderNotApplicable
	}
}
