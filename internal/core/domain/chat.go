package domain

// ChatRequest is the payload relayed to the assistant endpoint.
type ChatRequest struct {
	Message        string `json:"message"`
	PatientContext string `json:"patient_context,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// ChatResponse is the assistant's reply. Message echoes the question when
// the service includes it.
type ChatResponse struct {
	Message   string `json:"message,omitempty"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp,omitempty"`
}
