package imagehost

import (
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// AllowedImageTypes are the MIME types accepted by the upload proxy
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// ErrUnsupportedType is returned for files that are not JPEG, PNG or WEBP
type ErrUnsupportedType struct {
	Detected string
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported file type %s", e.Detected)
}

// DetectImage sniffs the content of r and returns its MIME type when it is an
// allowed image
func DetectImage(r io.Reader) (string, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}

	for _, allowed := range AllowedImageTypes {
		if mtype.Is(allowed) {
			return allowed, nil
		}
	}
	return "", &ErrUnsupportedType{Detected: mtype.String()}
}
