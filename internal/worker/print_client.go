package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const documentPrintPath = "internal/print/documents"

// fetchInternalPrintData pulls the print payload from the internal API.
// Only the worker may call this route, authenticated by X-Internal-Secret.
func fetchInternalPrintData(ctx context.Context, internalAPIBaseURL string, resourcePath string, id uint, secret string, correlationID string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("internal api secret missing")
	}

	internalAPIBaseURL = strings.TrimRight(strings.TrimSpace(internalAPIBaseURL), "/")
	if internalAPIBaseURL == "" {
		return nil, fmt.Errorf("internal api base url missing")
	}

	targetURL := fmt.Sprintf("%s/%s/%d", internalAPIBaseURL, strings.TrimPrefix(resourcePath, "/"), id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build internal request: %w", err)
	}
	req.Header.Set("X-Internal-Secret", secret)
	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request internal print data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return nil, fmt.Errorf("internal print data status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read internal print data: %w", err)
	}

	// The API wraps everything in {success, message, data}.
	payload := gjson.GetBytes(body, "data")
	if !payload.Exists() {
		return nil, fmt.Errorf("internal print data missing data field")
	}
	return []byte(payload.Raw), nil
}

// buildPrintDataInjectionScript builds the script that sets
// window.__PRINT_DATA__ in the print page. JSON.parse over a quoted string
// keeps the injection safe.
func buildPrintDataInjectionScript(data []byte) string {
	quoted := strconv.Quote(string(data))
	return fmt.Sprintf(`() => { window.__PRINT_DATA__ = JSON.parse(%s); }`, quoted)
}
