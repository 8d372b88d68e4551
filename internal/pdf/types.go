package pdf

// ValidateFileRequest represents a request to validate a PDF file
type ValidateFileRequest struct {
	Path string `json:"path"`
}

// ValidateFileResult represents the result of a PDF validation operation
type ValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Message string `json:"message,omitempty"`
	Pages   int    `json:"pages,omitempty"`
	Version string `json:"version,omitempty"`
}

// Info is the structural summary read from the document trailer and
// page tree.
type Info struct {
	Pages     int    `json:"pages"`
	Version   string `json:"version"`
	Encrypted bool   `json:"encrypted"`
}

// FileInfo describes a PDF found in a directory
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modifiedTime"`
}

// SearchDirectoryRequest represents a request to list PDFs in a directory
type SearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query,omitempty"`
}

// SearchDirectoryResult represents the PDFs found in a directory
type SearchDirectoryResult struct {
	Files      []FileInfo `json:"files"`
	TotalCount int        `json:"totalCount"`
	Directory  string     `json:"directory"`
	Query      string     `json:"query,omitempty"`
}
