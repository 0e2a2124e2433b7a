package domain

// SiteRequest is the payload for provisioning a single site
type SiteRequest struct {
	Domain     string
	PHPVersion string
	Features   []string
	Plugins    []string
	TenantID   *int
}

// BulkResult is the outcome of one bulk item
type BulkResult struct {
	Input       string `json:"input"`
	Success     bool   `json:"success"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// SourceHealth describes the availability of one log source on the server
type SourceHealth struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Readable bool   `json:"readable"`
	Status   string `json:"status"`
}

// OK returns true if the source file exists and is readable
func (h SourceHealth) OK() bool {
	return h.Exists && h.Readable
}
