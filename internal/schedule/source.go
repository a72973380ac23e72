package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	appLog "timetable/internal/log"
)

// maxBodyBytes bounds a downloaded calendar.
const maxBodyBytes = 8 << 20

var httpClient = &http.Client{Timeout: 15 * time.Second}

// ReadSource returns the raw bytes of a schedule source, which is either a
// local path or an http(s) URL.
func ReadSource(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, errors.New("schedule: source is empty")
	}
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("schedule: read %s: %w", src, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}

	appLog.Info("schedule fetch start", "url", redactURL(src))
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schedule: fetch %s: %w", redactURL(src), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schedule: fetch %s: %s", redactURL(src), resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("schedule: fetch %s: %w", redactURL(src), err)
	}
	appLog.Info("schedule fetch success", "url", redactURL(src), "bytes", len(body))
	return body, nil
}

// redactURL keeps only scheme and host so private calendar tokens stay out
// of the log.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return "ics://...(redacted)"
	}
	j := i + 3
	for j < len(u) && u[j] != '/' && u[j] != '?' {
		j++
	}
	return u[:j] + redactedSuffix
}
