package integrations

import "fmt"

// APIError is returned when a remote API answers with an unexpected status.
type APIError struct {
	API        string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned status %d for %s %s, body: %s", e.API, e.StatusCode, e.Method, e.Path, e.Body)
}
