package util

import (
	"io"
	"net/http"
	"strings"
	"time"
)

var client = &http.Client{Timeout: 30 * time.Second}

// NewHTTPRequest performs an http call and returns the response status and
// body as a string.
func NewHTTPRequest(
	method, url, bodyString string, header map[string]string,
) (int, string, error) {
	var body io.Reader
	if len(bodyString) > 0 {
		body = strings.NewReader(bodyString)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return 0, "", err
	}

	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer rs.Body.Close()

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return 0, "", err
	}

	return rs.StatusCode, string(bodyBytes), nil
}
