package logging

import (
	"encoding/json"
	"net/http"
)

// HTTPErrorResponse is a standard JSON error response for the admin server.
type HTTPErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSONError writes a JSON error response and logs it.
func WriteJSONError(w http.ResponseWriter, logger *Logger, message string, statusCode int, context map[string]interface{}) {
	logFields := make(map[string]interface{}, len(context)+1)
	for k, v := range context {
		logFields[k] = v
	}
	logFields["status_code"] = statusCode

	if logger != nil {
		logger.Error(message, logFields)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{Error: message})
}

// WriteJSONSuccess writes a JSON success response.
func WriteJSONSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(data)
}
