package ingest

import (
	"encoding/json"
	"fmt"
)

// Response is the Lambda invocation result, mirroring an API-style status
// code plus JSON body so the invoking infrastructure and test tooling see a
// uniform shape.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// responseBody is the JSON payload inside Response.Body.
type responseBody struct {
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id"`
	RecordCount   int    `json:"record_count,omitempty"`
}

func successResponse(correlationID string, processed int) Response {
	body, err := json.Marshal(responseBody{
		Message:       "Successfully processed video(s)",
		CorrelationID: correlationID,
		RecordCount:   processed,
	})
	if err != nil {
		// Marshal of a plain struct cannot realistically fail; keep the
		// response well-formed regardless.
		body = []byte(fmt.Sprintf(`{"correlation_id":%q}`, correlationID))
	}
	return Response{StatusCode: 200, Body: string(body)}
}
