package response

// Resp is the standard success envelope: {data, message?, success}.
type Resp struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// ErrResp is the standard error envelope: {error, message, details?}.
type ErrResp struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Paginated wraps a page of items together with paging metadata.
type Paginated struct {
	Items any `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

// Error codes used in ErrResp.Error.
const (
	CodeValidation  = "validation_error"
	CodeNotFound    = "not_found"
	CodeConflict    = "conflict"
	CodeInternal    = "internal_error"
	CodeUnavailable = "service_unavailable"
	CodeRateLimited = "rate_limited"
)

// NewOKResp returns a new success envelope with the given data.
func NewOKResp(data any) Resp {
	return Resp{Data: data, Success: true}
}

// NewPaginated computes page count and wraps items.
func NewPaginated(items any, total, page, size int) Paginated {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return Paginated{Items: items, Total: total, Page: page, Size: size, Pages: pages}
}
