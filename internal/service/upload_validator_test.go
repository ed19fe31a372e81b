package service

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90wS\xde")
)

func pdfUpload() Upload {
	return Upload{Filename: "Reset Form.pdf", Size: int64(len(pdfBytes)), ContentType: "application/pdf", Content: bytes.NewReader(pdfBytes)}
}

func TestUploadValidatorAcceptsPDFAndPNG(t *testing.T) {
	v := NewUploadValidator(0)
	require.NoError(t, v.Validate(pdfUpload()))
	require.NoError(t, v.Validate(Upload{Filename: "scan.PNG", Size: int64(len(pngBytes)), ContentType: "image/png", Content: bytes.NewReader(pngBytes)}))
}

func TestUploadValidatorRejections(t *testing.T) {
	v := NewUploadValidator(0)
	err := v.Validate(Upload{Filename: "a.pdf"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "missing")

	cases := map[string]Upload{
		"oversized":     {Filename: "a.pdf", Size: 6 * 1024 * 1024, ContentType: "application/pdf", Content: bytes.NewReader(pdfBytes)},
		"extension":     {Filename: "a.docx", Size: int64(len(pdfBytes)), ContentType: "application/pdf", Content: bytes.NewReader(pdfBytes)},
		"declared type": {Filename: "a.pdf", Size: int64(len(pdfBytes)), ContentType: "image/png", Content: bytes.NewReader(pdfBytes)},
		"content":       {Filename: "a.png", Size: int64(len(pdfBytes)), ContentType: "image/png", Content: bytes.NewReader(pdfBytes)},
		"text as pdf":   {Filename: "a.pdf", Size: 5, ContentType: "application/pdf", Content: strings.NewReader("hello")},
	}
	for name, upload := range cases {
		err := v.Validate(upload)
		assert.True(t, appErrors.Is(err, appErrors.ErrUploadRejected), name)
	}
}

func TestUploadValidatorRewindsContent(t *testing.T) {
	upload := pdfUpload()
	require.NoError(t, NewUploadValidator(0).Validate(upload))
	pos, err := upload.Content.Seek(0, 1)
	require.NoError(t, err)
	assert.Zero(t, pos)
}

func TestStoredNameIsSanitized(t *testing.T) {
	name := NewUploadValidator(0).StoredName("../My Reset Form!.PDF")
	assert.Regexp(t, regexp.MustCompile(`^uploads/my_reset_form_[a-z0-9]{7}\.pdf$`), name)

	name = NewUploadValidator(0).StoredName("???.png")
	assert.Regexp(t, regexp.MustCompile(`^uploads/document_[a-z0-9]{7}\.png$`), name)
}
