package tools

import "encoding/json"

// okJSON and errorJSON build the result envelope shared by most tools:
// {"status": "ok"|"error", "message": ..., extra fields}. Tool-level
// failures like a missing file are ordinary results in this envelope, not
// Go errors, so the model can read them and react.
func okJSON(message string, extra map[string]any) (string, error) {
	return statusJSON("ok", message, extra)
}

func errorJSON(message string, extra map[string]any) (string, error) {
	return statusJSON("error", message, extra)
}

func statusJSON(status, message string, extra map[string]any) (string, error) {
	payload := map[string]any{
		"status":  status,
		"message": message,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return marshalResult(payload)
}

func marshalResult(payload any) (string, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
