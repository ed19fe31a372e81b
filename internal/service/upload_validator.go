package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
)

const (
	defaultMaxUploadBytes = 5 * 1024 * 1024
	uploadDir             = "uploads"
	storedSuffixLength    = 7
	maxStemLength         = 80
)

var allowedUploadTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
}

// Upload is a supporting document attached to a submission.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Content     io.ReadSeeker
}

// UploadValidator enforces the size, extension and content rules for documents.
type UploadValidator struct {
	maxBytes int64
}

// NewUploadValidator builds a validator; maxBytes <= 0 falls back to 5 MiB.
func NewUploadValidator(maxBytes int64) *UploadValidator {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &UploadValidator{maxBytes: maxBytes}
}

// MaxBytes reports the size limit in bytes.
func (v *UploadValidator) MaxBytes() int64 {
	return v.maxBytes
}

// AllowedExtensions lists accepted file extensions.
func (v *UploadValidator) AllowedExtensions() []string {
	return []string{".pdf", ".jpg", ".jpeg", ".png"}
}

// Validate checks the upload and rewinds its content for storage.
func (v *UploadValidator) Validate(upload Upload) error {
	if upload.Content == nil || upload.Size <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "uploaded_file is required")
	}
	if upload.Size > v.maxBytes {
		return appErrors.Clone(appErrors.ErrUploadRejected, fmt.Sprintf("uploaded_file exceeds the %d MB limit", v.maxBytes/(1024*1024)))
	}
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	expected, ok := allowedUploadTypes[ext]
	if !ok {
		return appErrors.Clone(appErrors.ErrUploadRejected, "uploaded_file must be a PDF, JPG or PNG document")
	}

	declared, _, err := mime.ParseMediaType(upload.ContentType)
	if err != nil || !containsType(expected, declared) {
		return appErrors.Clone(appErrors.ErrUploadRejected, "uploaded_file content type does not match its extension")
	}

	detected, err := mimetype.DetectReader(upload.Content)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect upload")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	sniffed := false
	for _, mt := range expected {
		if detected.Is(mt) {
			sniffed = true
			break
		}
	}
	if !sniffed {
		return appErrors.Clone(appErrors.ErrUploadRejected, "uploaded_file content does not match its extension")
	}
	return nil
}

// StoredName derives a unique relative storage path from the client filename.
func (v *UploadValidator) StoredName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	stem := sanitizeStem(strings.TrimSuffix(filepath.Base(original), filepath.Ext(original)))
	if stem == "" {
		stem = "document"
	}
	return uploadDir + "/" + stem + "_" + randomSuffix(storedSuffixLength) + ext
}

func containsType(types []string, t string) bool {
	t = strings.ToLower(t)
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func sanitizeStem(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	stem := strings.Trim(b.String(), "_")
	if len(stem) > maxStemLength {
		stem = stem[:maxStemLength]
	}
	return stem
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	return randomString(suffixAlphabet, n)
}

// randomString draws n characters uniformly from alphabet using crypto/rand.
func randomString(alphabet string, n int) string {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out)
}
