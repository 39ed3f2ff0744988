package docproc

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// MaxUploadSize is the advertised upload limit. It is advisory: the backend
// is the only place uploads are rejected.
const MaxUploadSize = 10 << 20

// AcceptedExtensions lists the file types the backend processes.
var AcceptedExtensions = []string{"pdf", "jpg", "jpeg", "png", "txt"}

// UploadHint is the advisory text shown next to the file picker.
func UploadHint() string {
	return fmt.Sprintf("%s up to %s", strings.ToUpper(strings.Join(AcceptedExtensions, ", ")), humanize.IBytes(MaxUploadSize))
}

// CheckUpload returns advisory warnings for a file the backend is likely to
// reject. It never prevents an upload.
func CheckUpload(filename string, size int64) []string {
	var warnings []string

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	accepted := false
	for _, a := range AcceptedExtensions {
		if ext == a {
			accepted = true
			break
		}
	}
	if !accepted {
		warnings = append(warnings, fmt.Sprintf("file type %q is not one of %s", ext, strings.Join(AcceptedExtensions, ", ")))
	}

	if size > MaxUploadSize {
		warnings = append(warnings, fmt.Sprintf("file is %s, larger than the %s limit", humanize.IBytes(uint64(size)), humanize.IBytes(MaxUploadSize)))
	}

	return warnings
}
