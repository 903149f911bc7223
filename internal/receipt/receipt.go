package receipt

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/yusufwdn/reimverse/internal"
)

// Upload is a receipt file taken from a multipart request.
type Upload struct {
	Filename string
	Size     int64
	File     io.ReadSeeker
}

// sniffed content types accepted for each extension
var allowedTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

const allowedList = "pdf, jpg, jpeg, png"

// Extension returns the lower-cased extension without the dot.
func (u *Upload) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Filename)), ".")
}

func (u *Upload) IsImage() bool {
	return strings.HasPrefix(allowedTypes[u.Extension()], "image/")
}

func invalid(message string) *internal.AppError {
	return internal.NewValidationFieldError("receipt", message, internal.ErrCodeInvalidReceipt)
}

// TooLarge is also returned by handlers whose request body overran the cap
// before the file could be read.
func TooLarge(maxBytes int64) *internal.AppError {
	return invalid(fmt.Sprintf("The receipt field must not be greater than %d kilobytes.", maxBytes/1024))
}

// Validate checks presence, extension, size and that the content matches the
// extension. The reader is rewound before returning.
func Validate(u *Upload, maxBytes int64) *internal.AppError {
	if u == nil || u.File == nil {
		return invalid("The receipt field is required.")
	}

	ext := u.Extension()
	want, ok := allowedTypes[ext]
	if !ok {
		return invalid(fmt.Sprintf("The receipt field must be a file of type: %s.", allowedList))
	}

	if u.Size > maxBytes {
		return TooLarge(maxBytes)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(u.File, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return invalid("The receipt failed to upload.")
	}
	if _, err := u.File.Seek(0, io.SeekStart); err != nil {
		return invalid("The receipt failed to upload.")
	}

	if got := http.DetectContentType(head[:n]); !strings.HasPrefix(got, want) {
		return invalid(fmt.Sprintf("The receipt field must be a file of type: %s.", allowedList))
	}
	return nil
}
