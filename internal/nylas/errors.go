package nylas

import "github.com/shineum/nylas-bridge/internal/response"

// Error codes returned by the actions.
const (
	ErrDownloadFailed      response.Code = "DOWNLOAD_FAILED"
	ErrTransformationError response.Code = "TRANSFORMATION_ERROR"
	ErrRequestFailed       response.Code = "REQUEST_FAILED"
	ErrParseError          response.Code = "PARSE_ERROR"
)
