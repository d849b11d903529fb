package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/application/ports"
)

// remoteSettingsAdapter fetches schedules from another instance's
// GET /epochs/settings/{kind}/{network} endpoint.
type remoteSettingsAdapter struct {
	baseURL string
	client  *nethttp.Client
}

func NewRemoteSettingsAdapter(baseURL string, timeout time.Duration) ports.ScheduleProvider {
	return &remoteSettingsAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &nethttp.Client{Timeout: timeout},
	}
}

func (r *remoteSettingsAdapter) GetSchedule(ctx context.Context, key domain.ScheduleKey) (domain.EpochSchedule, error) {
	endpoint := fmt.Sprintf("%s/epochs/settings/%s/%s",
		r.baseURL, url.PathEscape(string(key.Kind)), url.PathEscape(string(key.Network)))

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, endpoint, nil)
	if err != nil {
		return domain.EpochSchedule{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return domain.EpochSchedule{}, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == nethttp.StatusNotFound:
		return domain.EpochSchedule{}, fmt.Errorf("%w: %s at %s", domain.ErrScheduleNotFound, key, r.baseURL)
	case resp.StatusCode != nethttp.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.EpochSchedule{}, fmt.Errorf("fetch %s: unexpected status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var schedule domain.EpochSchedule
	if err := json.NewDecoder(resp.Body).Decode(&schedule); err != nil {
		return domain.EpochSchedule{}, fmt.Errorf("decode settings from %s: %w", endpoint, err)
	}
	return schedule, nil
}
