package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/roomdesk/roomdesk/internal/schedule"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	googleTokenURL  = "https://oauth2.googleapis.com/token"
	googleEventsURL = "https://www.googleapis.com/calendar/v3/calendars"
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string
}

// GoogleClient talks to the Google Calendar v3 REST API using a long-lived
// refresh token. Access tokens are cached until shortly before expiry.
type GoogleClient struct {
	cfg  GoogleConfig
	http *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewGoogleClient(cfg GoogleConfig) *GoogleClient {
	return &GoogleClient{
		cfg: cfg,
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type googleEvent struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Summary     string `json:"summary"`
	HangoutLink string `json:"hangoutLink"`
	Start       struct {
		DateTime string `json:"dateTime"`
		Date     string `json:"date"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
		Date     string `json:"date"`
	} `json:"end"`
}

func (c *GoogleClient) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]schedule.Event, error) {
	q := url.Values{}
	q.Set("timeMin", timeMin.UTC().Format(time.RFC3339))
	q.Set("timeMax", timeMax.UTC().Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	var payload struct {
		Items []googleEvent `json:"items"`
	}
	endpoint := fmt.Sprintf("%s/%s/events?%s", googleEventsURL, url.PathEscape(c.cfg.CalendarID), q.Encode())
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	events := make([]schedule.Event, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.Status == "cancelled" {
			continue
		}
		start, err := parseEventTime(item.Start.DateTime, item.Start.Date)
		if err != nil {
			continue
		}
		end, err := parseEventTime(item.End.DateTime, item.End.Date)
		if err != nil {
			continue
		}
		title := item.Summary
		if title == "" {
			title = "(No title)"
		}
		events = append(events, schedule.Event{
			SourceID:    item.ID,
			Title:       title,
			Start:       start,
			End:         end,
			MeetingLink: item.HangoutLink,
		})
	}
	return events, nil
}

func (c *GoogleClient) CreateEvent(ctx context.Context, details EventDetails) (string, error) {
	body := map[string]any{
		"summary": details.Title,
		"start":   map[string]string{"dateTime": details.Start.UTC().Format(time.RFC3339)},
		"end":     map[string]string{"dateTime": details.End.UTC().Format(time.RFC3339)},
	}
	if details.MeetingLink != "" {
		body["description"] = "Meeting Link: " + details.MeetingLink
	}

	var created struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/events", googleEventsURL, url.PathEscape(c.cfg.CalendarID))
	if err := c.doJSON(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("calendar: create event returned no id")
	}
	return created.ID, nil
}

func (c *GoogleClient) DeleteEvent(ctx context.Context, eventID string) error {
	endpoint := fmt.Sprintf("%s/%s/events/%s", googleEventsURL, url.PathEscape(c.cfg.CalendarID), url.PathEscape(eventID))
	err := c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil)
	return err
}

func (c *GoogleClient) doJSON(ctx context.Context, method, endpoint string, body any, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token may have been revoked since we cached it; force a refresh on
		// the next call and surface the expired-authorization condition.
		c.mu.Lock()
		c.accessToken = ""
		c.mu.Unlock()
		return ErrAuthExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("calendar: %s %s returned %d: %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *GoogleClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-30*time.Second)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", c.cfg.RefreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calendar token: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		// A revoked or expired refresh token comes back as invalid_grant.
		if strings.Contains(string(raw), "invalid_grant") {
			return "", ErrAuthExpired
		}
		return "", fmt.Errorf("calendar token: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("calendar token: empty access token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

func parseEventTime(dateTime, date string) (time.Time, error) {
	if dateTime != "" {
		return time.Parse(time.RFC3339, dateTime)
	}
	// All-day events carry only a date.
	return time.Parse("2006-01-02", date)
}
