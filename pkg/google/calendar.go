package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"ai-assistant-be/pkg/tools"
)

const calendarBaseURL = "https://www.googleapis.com/calendar/v3"

// The original app pinned event timestamps to this zone.
const eventTimeZone = "America/New_York"

// CalendarClient talks to the Google Calendar v3 REST API on the user's
// primary calendar.
type CalendarClient struct {
	conf    *oauth2.Config
	creds   CredentialSource
	BaseURL string
}

var _ tools.CalendarProvider = &CalendarClient{}

func NewCalendarClient(conf *oauth2.Config, creds CredentialSource) *CalendarClient {
	return &CalendarClient{
		conf:    conf,
		creds:   creds,
		BaseURL: calendarBaseURL,
	}
}

// --- Wire structs ---

type calendarEventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type calendarEvent struct {
	Id          string            `json:"id,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Description string            `json:"description,omitempty"`
	Start       calendarEventTime `json:"start,omitempty"`
	End         calendarEventTime `json:"end,omitempty"`
}

type calendarListResponse struct {
	Items []calendarEvent `json:"items"`
}

// --- Interface Implementation ---

func (c *CalendarClient) ListEvents(ctx context.Context, query string, from, to time.Time, maxResults int) ([]tools.Event, error) {
	client, err := httpClient(ctx, c.conf, c.creds)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("timeMin", from.Format(time.RFC3339))
	params.Set("timeMax", to.Format(time.RFC3339))
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	if query != "" {
		params.Set("q", query)
	}

	endpoint := c.BaseURL + "/calendars/primary/events?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var listResp calendarListResponse
	if err := json.Unmarshal(bodyBytes, &listResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	events := make([]tools.Event, 0, len(listResp.Items))
	for _, item := range listResp.Items {
		events = append(events, tools.Event{
			Id:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Start:       parseEventTime(item.Start),
			End:         parseEventTime(item.End),
		})
	}
	return events, nil
}

func (c *CalendarClient) CreateEvent(ctx context.Context, event tools.Event) (*tools.Event, error) {
	client, err := httpClient(ctx, c.conf, c.creds)
	if err != nil {
		return nil, err
	}

	payload := calendarEvent{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       calendarEventTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: eventTimeZone},
		End:         calendarEventTime{DateTime: event.End.Format(time.RFC3339), TimeZone: eventTimeZone},
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.BaseURL + "/calendars/primary/events"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var created calendarEvent
	if err := json.Unmarshal(bodyBytes, &created); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &tools.Event{
		Id:          created.Id,
		Summary:     created.Summary,
		Description: created.Description,
		Start:       parseEventTime(created.Start),
		End:         parseEventTime(created.End),
	}, nil
}

// parseEventTime handles both timed (dateTime) and all-day (date) entries.
func parseEventTime(t calendarEventTime) time.Time {
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed
		}
	}
	if t.Date != "" {
		if parsed, err := time.Parse("2006-01-02", t.Date); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
