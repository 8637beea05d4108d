package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/settings"
)

var (
	LFJSON LogFormat = "json"
	LFText LogFormat = "text"
)

// NewConfig reads fileName on top of Defaults()
func NewConfig(fileName string) (Config, error) {
	c := Defaults()

	b, err := os.ReadFile(fileName)
	if err != nil {
		return c, fmt.Errorf("unable to open %q, reason: %w", fileName, err)
	}

	_, err = toml.Decode(string(b), &c)
	if err != nil {
		return c, fmt.Errorf("unable to unmarshal %q, reason: %w", fileName, err)
	}

	return c, nil
}

// Defaults returns a configuration that works without a config file
func Defaults() Config {
	c := Config{}

	c.Server.ListenOn = "localhost:1338"
	c.Server.InputLengthMax = 1 << 20
	c.Server.NetTTL = NewDuration(40 * time.Second)
	c.Server.Log.Level = "info"
	c.Server.Log.Format = LFText
	c.Server.RateLimiter.ParkedTTL = NewDuration(time.Second)

	c.Validation.BatchDelay = NewDuration(time.Second)
	c.Validation.SettingsStore = StoreType(settings.KindFile)
	c.Validation.SessionTTL = NewDuration(0)

	c.Compare.Timeout = NewDuration(30 * time.Second)
	c.Compare.Delay = NewDuration(100 * time.Millisecond)

	return c
}

// Config holds central config parameters
type Config struct {
	Server struct {
		ListenOn        string   `toml:"listenOn"`
		ConnectionLimit uint     `toml:"connectionLimit"`
		InputLengthMax  int64    `toml:"inputLengthMax" usage:"The maximum amount of bytes allowed, for any request body"`
		NetTTL          Duration `toml:"netTTL" usage:"Read and write timeout of the HTTP server"`
		CORS            struct {
			AllowedOrigins []string `toml:"allowedOrigins"`
			AllowedHeaders []string `toml:"allowedHeaders"`
		} `toml:"CORS"`
		Headers Headers `toml:"headers"`
		Log     struct {
			Level  string    `toml:"level"`
			Format LogFormat `toml:"format" usage:"The log output format \"json\" or \"text\""`
		} `toml:"log"`
		Hash struct {
			Key string `toml:"key" usage:"32 bytes, used to key the session result list"`
		} `toml:"hash"`
		GraphQL struct {
			PrettyOutput bool `toml:"prettyOutput"`
			GraphiQL     bool `toml:"graphiQL"`
			Playground   bool `toml:"playground"`
		} `toml:"graphql"`
		RateLimiter struct {
			Rate      uint     `toml:"rate"`
			Capacity  uint     `toml:"capacity"`
			ParkedTTL Duration `toml:"parkedTTL"`
		} `toml:"rateLimiter"`
		PathStrip string `toml:"pathStrip"`
	} `toml:"server"`

	Validation struct {
		BatchDelay    Duration  `toml:"batchDelay"`
		SettingsStore StoreType `toml:"settingsStore" usage:"Where validation settings are kept \"file\", \"memory\" or \"postgres\""`
		SettingsDir   string    `toml:"settingsDir"`
		PostgresURL   string    `toml:"postgresURL"`
		SessionTTL    Duration  `toml:"sessionTTL" usage:"How long results are kept, 0 keeps them until restart"`
	} `toml:"validation"`

	Compare struct {
		Limit   int      `toml:"limit"`
		Timeout Duration `toml:"timeout"`
		Delay   Duration `toml:"delay"`
	} `toml:"compare"`

	Providers map[string]ProviderConfig `toml:"providers"`

	PubSub struct {
		Enabled         bool     `toml:"enabled"`
		ProjectID       string   `toml:"projectID"`
		Topic           string   `toml:"topic"`
		CredentialsFile string   `toml:"credentialsFile"`
		Endpoint        string   `toml:"endpoint"`
		Labels          []string `toml:"labels"`
		Concurrency     int      `toml:"concurrency" usage:"Notifications handled at the same time, 0 keeps the client default"`
	} `toml:"pubsub"`
}

type ProviderConfig struct {
	Endpoint string `toml:"endpoint"`
}

// SettingsLocation returns the directory or DSN that belongs to the configured settings store
func (c Config) SettingsLocation() string {
	if c.Validation.SettingsStore == StoreType(settings.KindPostgres) {
		return c.Validation.PostgresURL
	}

	return c.Validation.SettingsDir
}

// ProviderOptions translates the [providers.<id>] sections, unknown IDs are refused
func (c Config) ProviderOptions() ([]provider.Option, error) {
	ids := make([]string, 0, len(c.Providers))
	for id := range c.Providers {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	var options []provider.Option
	for _, raw := range ids {
		var id provider.ID
		if err := id.UnmarshalText([]byte(raw)); err != nil {
			return nil, err
		}

		if endpoint := c.Providers[raw].Endpoint; endpoint != "" {
			options = append(options, provider.WithEndpointFor(id, endpoint))
		}
	}

	return options, nil
}

type Headers map[string]string

func (h Headers) String() string {
	var v string
	for header, value := range h {
		v += `"` + header + `:` + value + `",`
	}

	if len(v) > 0 {
		v = v[0 : len(v)-1]
	}

	return v
}

func (h *Headers) Set(v string) error {
	s := strings.SplitN(v, `:`, 2)
	if len(s) != 2 {
		return fmt.Errorf("invalid Header argument %q, expecting <header name>:<header value>", v)
	}

	if *h == nil {
		*h = make(map[string]string, 1)
	}

	(*h)[s[0]] = s[1]

	return nil
}

type StoreType string

func (st StoreType) String() string {
	return string(st)
}

func (st *StoreType) Set(v string) error {
	return st.UnmarshalText([]byte(v))
}

func (st *StoreType) UnmarshalText(value []byte) error {
	kinds := settings.StoreKinds()

	v := string(value)
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if string(k) == v {
			*st = StoreType(v)
			return nil
		}

		names = append(names, string(k))
	}

	expected := strings.Join(names, ", ")
	return fmt.Errorf("unsupported value %q for settings store. Expected one of: %q", value, expected)
}

// Kind returns the settings.StoreKind
func (st StoreType) Kind() settings.StoreKind {
	return settings.StoreKind(st)
}

func NewDuration(d time.Duration) Duration {
	return Duration{duration: d}
}

type Duration struct {
	duration time.Duration
}

func (d Duration) String() string {
	return d.duration.String()
}

func (d *Duration) Set(v string) error {
	var err error
	d.duration, err = time.ParseDuration(v)
	return err
}

func (d Duration) AsDuration() time.Duration {
	return d.duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.duration, err = time.ParseDuration(string(text))
	return err
}

type LogFormat string

func (vt LogFormat) String() string {
	return string(vt)
}

func (vt *LogFormat) Set(v string) error {
	*vt = LogFormat(v)
	return nil
}

func (vt *LogFormat) UnmarshalText(value []byte) error {
	validTypes := []string{string(LFJSON), string(LFText)}
	v := string(value)
	for _, t := range validTypes {
		if t == v {
			*vt = LogFormat(v)
			return nil
		}
	}

	expected := strings.Join(validTypes, ", ")
	return fmt.Errorf("unsupported value %q for log format. Expected one of: %q", value, expected)
}
