package domain

import "encoding/json"

// FileDescriptor describes one object in the document store.
type FileDescriptor struct {
	Key          string `json:"key"`
	LastModified string `json:"last_modified"`
	Size         int64  `json:"size"`
	DisplayName  string `json:"display_name"`
}

// FunctionEnvelope is the outer result of a file function invocation.
// Body holds a JSON document encoded as a string.
type FunctionEnvelope struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// FunctionResult is the decoded inner body of a FunctionEnvelope.
type FunctionResult struct {
	Success bool         `json:"success"`
	Files   []RemoteFile `json:"files,omitempty"`
	Content *string      `json:"content,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// RemoteFile is a file entry as reported by the file function.
type RemoteFile struct {
	FullPath     string `json:"full_path,omitempty"`
	Key          string `json:"key,omitempty"`
	LastModified string `json:"last_modified"`
	Size         int64  `json:"size"`
	Filename     string `json:"filename"`
}

// Descriptor converts a remote entry into a FileDescriptor.
func (f RemoteFile) Descriptor() FileDescriptor {
	key := f.FullPath
	if key == "" {
		key = f.Key
	}
	return FileDescriptor{
		Key:          key,
		LastModified: f.LastModified,
		Size:         f.Size,
		DisplayName:  f.Filename,
	}
}

// File function tool names.
const (
	ToolListFiles = "list_s3_files"
	ToolReadFile  = "read_s3_file"
)

// File listing prefixes.
const (
	PrefixInput  = "input"
	PrefixOutput = "output"
)
