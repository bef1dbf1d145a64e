package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/frontmatter"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeBasic    = "basic"
)

// Content sources.
const (
	SourceLocal = "local"
	SourceS3    = "s3"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	S3      S3Config          `yaml:"s3"`
	Auth    AuthConfig        `yaml:"auth"`
	Posts   PostsConfig       `yaml:"posts"`
	Resume  ResumeConfig      `yaml:"resume"`
	Proxy   ProxyConfig       `yaml:"proxy"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Contact ContactConfig     `yaml:"contact"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if c.Content.Source == SourceS3 {
		if err := c.S3.Validate(); err != nil {
			return fmt.Errorf("s3: %w", err)
		}
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Posts.Validate(); err != nil {
		return fmt.Errorf("posts: %w", err)
	}
	if err := c.Resume.Validate(); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	if err := c.Proxy.Validate(); err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Contact.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig selects the content store and the key roots of each
// category.
type ContentConfig struct {
	Source     string `yaml:"source"`
	Path       string `yaml:"path"`
	PostsRoot  string `yaml:"posts_root"`
	ResumeRoot string `yaml:"resume_root"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	if c.Source == "" {
		c.Source = SourceLocal
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.Required, validation.In(SourceLocal, SourceS3)),
		validation.Field(&c.Path, validation.When(c.Source == SourceLocal, validation.Required)),
		validation.Field(&c.PostsRoot, validation.Required),
		validation.Field(&c.ResumeRoot, validation.Required),
	)
}

// S3Config holds the credentials of an S3-compatible bucket (R2, MinIO).
type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	UseSSL          bool   `yaml:"use_ssl"`
}

// Validate validates the S3 configuration.
func (c *S3Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.AccessKeyID, validation.Required),
		validation.Field(&c.SecretAccessKey, validation.Required),
		validation.Field(&c.Bucket, validation.Required),
	)
}

// AuthConfig holds the Basic-Auth gate configuration.
//
// Mode controls how the resume routes are protected:
//   - "disabled" (default): no credentials required, suitable for local dev.
//   - "basic": HTTP Basic auth; Username and Password must be non-empty.
type AuthConfig struct {
	Mode     string `yaml:"mode"`
	Realm    string `yaml:"realm"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeBasic)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeBasic && (c.Username == "" || c.Password == "") {
		return fmt.Errorf("auth: mode is %q but credentials are empty", AuthModeBasic)
	}
	return nil
}

// AuthEnabled returns true when the gate is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeBasic
}

// PostsConfig locates the post sources and the generated files.
type PostsConfig struct {
	SourceDir        string `yaml:"source_dir"`
	IndexPath        string `yaml:"index_path"`
	CachePath        string `yaml:"cache_path"`
	PublishCachePath string `yaml:"publish_cache_path"`
	NewWindowDays    int    `yaml:"new_window_days"`
}

// NewWindow returns the freshness window as a duration.
func (c *PostsConfig) NewWindow() time.Duration {
	return time.Duration(c.NewWindowDays) * 24 * time.Hour
}

// Validate validates the posts configuration.
func (c *PostsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.IndexPath, validation.Required),
		validation.Field(&c.NewWindowDays, validation.Min(1)),
	)
}

// ResumeConfig configures the resume sections and the merge tooling.
type ResumeConfig struct {
	Dir       string        `yaml:"dir"`
	Sections  []string      `yaml:"sections"`
	BackupDir string        `yaml:"backup_dir"`
	Debounce  time.Duration `yaml:"debounce"`
}

// Validate validates the resume configuration.
func (c *ResumeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Sections, validation.Each(validation.In(toAny(frontmatter.ResumeTypes)...))),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// ProxyConfig restricts the image proxy.
type ProxyConfig struct {
	AllowedHosts []string      `yaml:"allowed_hosts"`
	MaxAge       time.Duration `yaml:"max_age"`
}

// Validate validates the proxy configuration.
func (c *ProxyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxAge, validation.Required, validation.Min(time.Second)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ContactConfig rate-limits the contact form per client address.
type ContactConfig struct {
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
	// TrustedProxies are IPs or CIDR ranges allowed to name the client in
	// X-Forwarded-For or X-Real-IP. Empty means the socket peer is used.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// Validate validates the contact configuration.
func (c *ContactConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RateLimit, validation.Min(0)),
		validation.Field(&c.RateWindow, validation.When(c.RateLimit > 0, validation.Required)),
		validation.Field(&c.TrustedProxies, validation.By(func(any) error {
			_, err := api.ParseTrustedProxies(c.TrustedProxies)
			return err
		})),
	)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Source:     SourceLocal,
			Path:       "./content",
			PostsRoot:  "posts",
			ResumeRoot: "resume",
		},
		S3: S3Config{
			UseSSL: true,
			Region: "auto",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Posts: PostsConfig{
			SourceDir:        "./posts",
			IndexPath:        "./posts/index.json",
			CachePath:        "./posts/.version-cache.json",
			PublishCachePath: "./posts/.publish-cache.json",
			NewWindowDays:    14,
		},
		Resume: ResumeConfig{
			Dir:      "./resume",
			Sections: append([]string(nil), frontmatter.ResumeTypes...),
			Debounce: 3 * time.Second,
		},
		Proxy: ProxyConfig{
			MaxAge: 7 * 24 * time.Hour,
		},
		SQLite: SQLiteConfig{
			Path: "./folio.db",
		},
		Contact: ContactConfig{
			RateLimit:  5,
			RateWindow: time.Hour,
		},
	}
}
