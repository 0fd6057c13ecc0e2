package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type ReplicationMethod string

const (
	ReplicationIncremental ReplicationMethod = "INCREMENTAL"
	ReplicationFullTable   ReplicationMethod = "FULL_TABLE"
)

// DefaultCursorField is the normalized name of the Quickbase "Date Modified"
// built-in, the replication key for incremental streams.
const DefaultCursorField = "date_modified"

type Config struct {
	Hostname       string
	AppID          string
	UserToken      string
	UserAgent      string
	BaseURL        string
	StartDate      string
	Streams        []StreamConfig
	Logger         LoggerConfig
	RequestTimeout time.Duration
	RetryAttempts  uint
}

type LoggerConfig struct {
	LogLevel logrus.Level
}

// StreamConfig is one selected stream, already resolved to a table, a
// replication method and a field selection.
type StreamConfig struct {
	TableID           string
	Name              string
	ReplicationMethod ReplicationMethod
	// CursorField is the normalized name of the replication-key field.
	// Defaults to date_modified for incremental streams.
	CursorField string
	// SelectedFieldIDs narrows the synced fields. nil selects every field;
	// an empty non-nil slice selects none (the stream still emits its
	// SCHEMA and STATE messages).
	SelectedFieldIDs []int
}

type Option func(*Config)

func NewConfig(opts ...Option) *Config {
	c := &Config{}
	for _, opt := range opts {
		opt(c)
	}
	c.SetDefault()
	return c
}

func WithHostname(hostname string) Option {
	return func(c *Config) {
		c.Hostname = hostname
	}
}

func WithAppID(appID string) Option {
	return func(c *Config) {
		c.AppID = appID
	}
}

func WithUserToken(token string) Option {
	return func(c *Config) {
		c.UserToken = token
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Config) {
		c.UserAgent = userAgent
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.BaseURL = baseURL
	}
}

func WithStartDate(startDate string) Option {
	return func(c *Config) {
		c.StartDate = startDate
	}
}

func WithLogLevel(level logrus.Level) Option {
	return func(c *Config) {
		c.Logger.LogLevel = level
	}
}

func WithStreams(streams []StreamConfig) Option {
	return func(c *Config) {
		c.Streams = streams
	}
}

func WithStream(stream StreamConfig) Option {
	return func(c *Config) {
		c.Streams = append(c.Streams, stream)
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.RequestTimeout = timeout
	}
}

func WithRetryAttempts(attempts uint) Option {
	return func(c *Config) {
		c.RetryAttempts = attempts
	}
}

func (c *Config) SetDefault() {
	if c.StartDate == "" {
		c.StartDate = "1970-01-01"
	}

	if c.Logger.LogLevel == 0 {
		c.Logger.LogLevel = logrus.InfoLevel
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}

	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}

	for i, s := range c.Streams {
		if s.ReplicationMethod == "" {
			c.Streams[i].ReplicationMethod = ReplicationIncremental
		}
		if c.Streams[i].ReplicationMethod == ReplicationIncremental && s.CursorField == "" {
			c.Streams[i].CursorField = DefaultCursorField
		}
	}
}

func (c *Config) Validate() error {
	var err error
	if isEmpty(c.Hostname) {
		err = errors.Join(err, errors.New("hostname cannot be empty"))
	}

	if isEmpty(c.AppID) {
		err = errors.Join(err, errors.New("appId cannot be empty"))
	}

	if isEmpty(c.UserToken) {
		err = errors.Join(err, errors.New("userToken cannot be empty"))
	}

	if _, parseErr := time.Parse("2006-01-02", c.StartDate); parseErr != nil {
		err = errors.Join(err, fmt.Errorf("startDate must be a YYYY-MM-DD date: %q", c.StartDate))
	}

	for _, s := range c.Streams {
		if cErr := s.Validate(); cErr != nil {
			err = errors.Join(err, cErr)
		}
	}

	return err
}

func (s *StreamConfig) Validate() error {
	var err error
	if isEmpty(s.TableID) {
		err = errors.Join(err, errors.New("stream tableId cannot be empty"))
	}

	switch s.ReplicationMethod {
	case ReplicationIncremental:
		if isEmpty(s.CursorField) {
			err = errors.Join(err, fmt.Errorf("stream %s: incremental replication requires a cursor field", s.TableID))
		}
	case ReplicationFullTable:
	default:
		err = errors.Join(err, fmt.Errorf("stream %s: invalid replication method %q", s.TableID, s.ReplicationMethod))
	}

	return err
}

// Print writes a masked summary to stderr; stdout is reserved for
// interchange messages.
func (c *Config) Print() {
	fmt.Fprintf(os.Stderr, "Config: Hostname=%s AppID=%s UserToken=******* StartDate=%s Streams=%d\n",
		c.Hostname, c.AppID, c.StartDate, len(c.Streams))
}

func isEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}
