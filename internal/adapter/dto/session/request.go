package session

// SelectDeviceRequest switches the active device of one class
type SelectDeviceRequest struct {
	Kind     string `json:"kind" validate:"required,devicekind"`
	DeviceID string `json:"device_id" validate:"required,max=255"`
}

// ToggleRequest turns the microphone or camera on or off
type ToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// SelectSourceRequest commits a source offered by the host picker
type SelectSourceRequest struct {
	SourceID string `json:"source_id" validate:"required,max=255"`
}

// AttachmentRequest is a file shared alongside a chat message
type AttachmentRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	URL         string `json:"url" validate:"required,url"`
	ContentType string `json:"content_type,omitempty" validate:"omitempty,max=127"`
}

// SendChatRequest sends a chat message as the local participant
type SendChatRequest struct {
	Body       string             `json:"body" validate:"max=4000"`
	Attachment *AttachmentRequest `json:"attachment,omitempty"`
}

// AddTranslationRequest appends a translated utterance
type AddTranslationRequest struct {
	Speaker        string `json:"speaker" validate:"required,max=255"`
	SourceText     string `json:"source_text" validate:"required"`
	SourceLanguage string `json:"source_language" validate:"required,langtag"`
	TargetText     string `json:"target_text" validate:"required"`
}

// AddTermRequest appends a term explanation
type AddTermRequest struct {
	Term            string `json:"term" validate:"required,max=255"`
	Explanation     string `json:"explanation" validate:"required"`
	OriginReference string `json:"origin_reference,omitempty"`
}
