package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is a successful (2xx) reply from the remote service.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Dispatcher sends requests to the remote service with the current
// credential attached. Non-2xx replies and transport failures are
// returned as *domain.RequestError.
type Dispatcher interface {
	Send(ctx context.Context, method, path string, body any) (*Response, error)
}
