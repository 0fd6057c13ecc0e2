package config

import (
	"encoding/json"
	"fmt"
)

// fileConfig mirrors the JSON config file the host pipeline supplies. Keys
// follow the tap's historical naming (qb_ prefix).
type fileConfig struct {
	Hostname  string       `json:"qb_hostname"`
	AppID     string       `json:"qb_appid"`
	UserToken string       `json:"qb_user_token"`
	UserAgent string       `json:"user_agent,omitempty"`
	StartDate string       `json:"start_date,omitempty"`
	Streams   []fileStream `json:"streams,omitempty"`
}

type fileStream struct {
	TableID           string `json:"table_id"`
	Name              string `json:"name,omitempty"`
	ReplicationMethod string `json:"replication_method,omitempty"`
	CursorField       string `json:"cursor_field,omitempty"`
	SelectedFieldIDs  []int  `json:"selected_field_ids,omitempty"`
}

// FromJSON builds a Config from a config-file payload. Start-date values
// with a time component are truncated to the day, matching the bookmark
// granularity.
func FromJSON(data []byte) (*Config, error) {
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	opts := []Option{
		WithHostname(fc.Hostname),
		WithAppID(fc.AppID),
		WithUserToken(fc.UserToken),
	}
	if fc.UserAgent != "" {
		opts = append(opts, WithUserAgent(fc.UserAgent))
	}
	if fc.StartDate != "" {
		startDate := fc.StartDate
		if len(startDate) > 10 {
			startDate = startDate[:10]
		}
		opts = append(opts, WithStartDate(startDate))
	}

	for _, fs := range fc.Streams {
		opts = append(opts, WithStream(StreamConfig{
			TableID:           fs.TableID,
			Name:              fs.Name,
			ReplicationMethod: ReplicationMethod(fs.ReplicationMethod),
			CursorField:       fs.CursorField,
			SelectedFieldIDs:  fs.SelectedFieldIDs,
		}))
	}

	return NewConfig(opts...), nil
}
