package store

import (
	"fmt"

	"github.com/google/uuid"
)

// ThumbnailColumn holds the PNG preview of a template in both backends.
const ThumbnailColumn = "thumbnail"

// RowValue prepares a value returned by RunSQL for printing. Thumbnails are
// reduced to their size, text scanned as bytes becomes a string and raw
// uuids are formatted.
func RowValue(column string, v any) any {
	switch x := v.(type) {
	case []byte:
		if column == ThumbnailColumn {
			return fmt.Sprintf("<png %d bytes>", len(x))
		}
		return string(x)
	case [16]byte:
		return uuid.UUID(x).String()
	}
	return v
}
