package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	CodeCaps     = "caps"
	CodeNonLatin = "non-latin"
	CodeFileType = "file-type"
	CodeFileSize = "file-size"

	// DefaultMaxImageSize is the upload limit applied when none is configured.
	DefaultMaxImageSize = 100 * 1024
)

// ValidationError describes a value rejected by one of the validators.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var latinRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0041, Hi: 0x005A, Stride: 1},
		{Lo: 0x0061, Hi: 0x007A, Stride: 1},
		{Lo: 0x00C0, Hi: 0x02AF, Stride: 1},
		{Lo: 0x0300, Hi: 0x036F, Stride: 1},
		{Lo: 0x1E00, Hi: 0x1EFF, Stride: 1},
	},
}

// ValidateNotAllCaps rejects values that look typed with caps lock on.
// Values of 3 characters or fewer, and values without cased letters, pass.
func ValidateNotAllCaps(value string) error {
	if utf8.RuneCountInString(value) <= 3 {
		return nil
	}

	last, _ := utf8.DecodeLastRuneInString(value)
	if !unicode.IsUpper(last) || value != strings.ToUpper(value) {
		return nil
	}

	return &ValidationError{
		Code:    CodeCaps,
		Message: fmt.Sprintf("Today is not CapsLock day. Please try with '%s'.", titleCase(value)),
	}
}

// ValidateLatin checks that the value starts with a latin-script character.
func ValidateLatin(value string) error {
	first, _ := utf8.DecodeRuneInString(value)
	if value == "" || !unicode.Is(latinRanges, first) {
		return &ValidationError{
			Code:    CodeNonLatin,
			Message: "Please provide this data in Latin characters.",
		}
	}
	return nil
}

// ValidateImageType sniffs the content and returns its MIME type if it is an image.
func ValidateImageType(content []byte) (string, error) {
	mtype := mimetype.Detect(content)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", &ValidationError{
			Code:    CodeFileType,
			Message: fmt.Sprintf("File type %s is not supported", mtype.String()),
		}
	}
	return mtype.String(), nil
}

// ValidateImageSize rejects content larger than limit bytes.
func ValidateImageSize(size int64, limit int64) error {
	if limit <= 0 {
		limit = DefaultMaxImageSize
	}
	if size > limit {
		return &ValidationError{
			Code: CodeFileSize,
			Message: fmt.Sprintf("Please keep filesize under %s. Current filesize %s",
				humanize.IBytes(uint64(limit)), humanize.IBytes(uint64(size))),
		}
	}
	return nil
}

func titleCase(value string) string {
	return cases.Title(language.Und).String(value)
}
