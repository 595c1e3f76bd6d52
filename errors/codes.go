package errors

// ErrorCode là mã lỗi trả về cho client
type ErrorCode int32

const (
	ErrorCode_HTTP_OK          ErrorCode = 0
	ErrorCode_INTERNAL         ErrorCode = 1
	ErrorCode_INVALID_ARGUMENT ErrorCode = 2
	ErrorCode_NOT_FOUND        ErrorCode = 3
	ErrorCode_SESSION_ENDED    ErrorCode = 4
	ErrorCode_SESSION_STARTING ErrorCode = 5
	ErrorCode_CONFLICT         ErrorCode = 6

	// Device errors
	ErrorCode_PERMISSION_DENIED    ErrorCode = 100
	ErrorCode_DEVICE_SWITCH_FAILED ErrorCode = 101

	// Screen share errors
	ErrorCode_SHARE_CANCELLED ErrorCode = 200
	ErrorCode_SHARE_FAILED    ErrorCode = 201

	// Record errors
	ErrorCode_RECORD_PERSIST_FAILED ErrorCode = 300

	// Integration errors
	ErrorCode_INTEGRATION_TRANSPORT_FAILED ErrorCode = 400
	ErrorCode_INTEGRATION_HOST_FAILED      ErrorCode = 401
	ErrorCode_INTEGRATION_STORAGE_FAILED   ErrorCode = 402
	ErrorCode_INTEGRATION_CACHE_FAILED     ErrorCode = 403
	ErrorCode_DB_QUERY_FAILED              ErrorCode = 404
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                      "HTTP_OK",
	ErrorCode_INTERNAL:                     "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:             "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                    "NOT_FOUND",
	ErrorCode_SESSION_ENDED:                "SESSION_ENDED",
	ErrorCode_SESSION_STARTING:             "SESSION_STARTING",
	ErrorCode_CONFLICT:                     "CONFLICT",
	ErrorCode_PERMISSION_DENIED:            "PERMISSION_DENIED",
	ErrorCode_DEVICE_SWITCH_FAILED:         "DEVICE_SWITCH_FAILED",
	ErrorCode_SHARE_CANCELLED:              "SHARE_CANCELLED",
	ErrorCode_SHARE_FAILED:                 "SHARE_FAILED",
	ErrorCode_RECORD_PERSIST_FAILED:        "RECORD_PERSIST_FAILED",
	ErrorCode_INTEGRATION_TRANSPORT_FAILED: "INTEGRATION_TRANSPORT_FAILED",
	ErrorCode_INTEGRATION_HOST_FAILED:      "INTEGRATION_HOST_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED:   "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:     "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_QUERY_FAILED:              "DB_QUERY_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText renders the code by name in JSON bodies
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
