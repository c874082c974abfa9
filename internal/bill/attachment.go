package bill

import (
	"strings"
)

// Verdict is the outcome of ValidateAttachment
type Verdict int

const (
	Rejected Verdict = iota
	Accepted
)

func (v Verdict) String() string {
	if v == Accepted {
		return "accepted"
	}
	return "rejected"
}

var acceptedMimeTypes = map[string]bool{
	"image/jpg":  true,
	"image/jpeg": true,
	"image/png":  true,
}

// ValidateAttachment gates receipts by their declared MIME type. The file
// name is informational only.
func ValidateAttachment(fileName, mimeType string) Verdict {
	if acceptedMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))] {
		return Accepted
	}
	return Rejected
}

// Attachment is a receipt file as picked by the employee
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// BaseName returns the last path segment of the attachment name. Browsers
// may report names such as C:\fakepath\receipt.png.
func (a Attachment) BaseName() string {
	name := a.Name
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// StoredFile is what the store returns once an attachment is uploaded
type StoredFile struct {
	DownloadURL     string `json:"fileUrl"`
	StorageFilePath string `json:"filePath"`
}

// FileSelection mirrors the file input of the new bill form
type FileSelection struct {
	files []Attachment
}

// Files returns the currently selected files
func (s FileSelection) Files() []Attachment {
	return s.files
}

// Len returns how many files are selected
func (s FileSelection) Len() int {
	return len(s.files)
}

func (s *FileSelection) set(att Attachment) {
	s.files = []Attachment{att}
}

// Clear empties the selection
func (s *FileSelection) Clear() {
	s.files = nil
}
