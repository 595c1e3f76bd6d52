package record

// ListRecordsRequest represents query parameters for listing records
type ListRecordsRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}
