package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/assets"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/internal"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
	"gopkg.in/yaml.v3"
)

const (
	// AppName names the user config directory.
	AppName = "portfolio"

	// DefaultConfigFile is looked up in the working directory and the user
	// config directory.
	DefaultConfigFile = "portfolio.yaml"

	BackendFile = "file"
	BackendSQL  = "sql"
)

// DefaultLanguages are used for new multilingual values when neither the
// config nor a languages document names any.
var DefaultLanguages = []string{"en", "fr", "mx", "ht"}

// Config is the admin configuration. It is read from portfolio.yaml or from
// a content root directory holding config/*.json.
type Config struct {
	Backend   string    `yaml:"backend,omitempty"`
	DataDir   string    `yaml:"dataDir,omitempty"`
	BackupDir string    `yaml:"backupDir,omitempty"`
	SQL       SQLConfig `yaml:"sql,omitempty"`

	Languages       []string `yaml:"languages,omitempty"`
	DefaultLanguage string   `yaml:"defaultLanguage,omitempty"`

	MediaTypes []content.MediaType `yaml:"mediaTypes"`
	Categories []content.Category  `yaml:"categories"`

	Assets AssetsConfig `yaml:"assets,omitempty"`

	// Path is where the config was read from.
	Path string `yaml:"-"`
}

type SQLConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `yaml:"driver,omitempty"`
	DSN    string `yaml:"dsn,omitempty"`
}

type AssetsConfig struct {
	Cloudinary *CloudinaryConfig `yaml:"cloudinary,omitempty"`
	GitHub     *GitHubConfig     `yaml:"github,omitempty"`
	S3         *S3Config         `yaml:"s3,omitempty"`
}

type CloudinaryConfig struct {
	CloudName string `yaml:"cloudName"`
	APIKey    string `yaml:"apiKey"`
	APISecret string `yaml:"apiSecret"`
}

type GitHubConfig struct {
	Repo       string `yaml:"repo"`
	Token      string `yaml:"token,omitempty"`
	ReleaseTag string `yaml:"releaseTag,omitempty"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region,omitempty"`
	AccessKey string `yaml:"accessKey,omitempty"`
	SecretKey string `yaml:"secretKey,omitempty"`
	UseSSL    bool   `yaml:"useSSL,omitempty"`
	PublicURL string `yaml:"publicUrl,omitempty"`
}

// ResolveConfigPath picks the config location. Precedence:
//
//  1. explicit (the --config flag)
//  2. PORTFOLIO_CONFIG
//  3. PORTFOLIO_CONTENT_ROOT (a content root directory)
//  4. ./portfolio.yaml
//  5. <user config dir>/portfolio/portfolio.yaml
func ResolveConfigPath(explicit string) (string, error) {
	for _, p := range []string{explicit, os.Getenv("PORTFOLIO_CONFIG"), os.Getenv("PORTFOLIO_CONTENT_ROOT")} {
		if strings.TrimSpace(p) != "" {
			return p, nil
		}
	}

	candidates := []string{DefaultConfigFile}
	if dir, err := internal.GetConfigDir(AppName); err == nil {
		candidates = append(candidates, filepath.Join(dir, DefaultConfigFile))
	}
	for _, c := range candidates {
		ok, err := internal.FileExists(c)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", c, err)
		}
		if ok {
			return c, nil
		}
	}
	return "", fmt.Errorf("no %s found (searched %s): %w",
		DefaultConfigFile, strings.Join(candidates, ", "), fs.ErrNotExist)
}

// LoadConfig reads the config at path. A directory is read as a content root.
// A .env file next to the config and one in the working directory are loaded
// first; variables already set win.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	lg := log.FromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	base := filepath.Dir(path)
	if info.IsDir() {
		base = path
	}
	loadDotEnv(ctx, filepath.Join(base, ".env"), ".env")

	var cfg *Config
	if info.IsDir() {
		cfg, err = readContentRoot(ctx, path)
	} else {
		cfg, err = readConfigFile(path)
	}
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	cfg.ExpandEnv()
	cfg.applyDefaults(base)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lg.Debug("config loaded", "path", path, "backend", cfg.Backend, "dataDir", cfg.DataDir)
	return cfg, nil
}

func loadDotEnv(ctx context.Context, paths ...string) {
	lg := log.FromContext(ctx)
	seen := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if ok, _ := internal.FileExists(abs); !ok {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			lg.Warn("failed to load env file", "path", abs, "err", err)
			continue
		}
		lg.Debug("env file loaded", "path", abs)
	}
}

func readConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ExpandEnv replaces ${VAR} and $VAR in every string setting. Credentials
// missing from the file fall back to the conventional environment variables.
func (c *Config) ExpandEnv() {
	c.Backend = os.ExpandEnv(c.Backend)
	c.DataDir = os.ExpandEnv(c.DataDir)
	c.BackupDir = os.ExpandEnv(c.BackupDir)
	c.SQL.Driver = os.ExpandEnv(c.SQL.Driver)
	c.SQL.DSN = os.ExpandEnv(c.SQL.DSN)

	if cl := c.Assets.Cloudinary; cl != nil {
		cl.CloudName = envOr(os.ExpandEnv(cl.CloudName), "CLOUDINARY_CLOUD_NAME")
		cl.APIKey = envOr(os.ExpandEnv(cl.APIKey), "CLOUDINARY_API_KEY")
		cl.APISecret = envOr(os.ExpandEnv(cl.APISecret), "CLOUDINARY_API_SECRET")
	}
	if gh := c.Assets.GitHub; gh != nil {
		gh.Repo = os.ExpandEnv(gh.Repo)
		gh.Token = envOr(os.ExpandEnv(gh.Token), "GITHUB_TOKEN")
		gh.ReleaseTag = os.ExpandEnv(gh.ReleaseTag)
	}
	if s := c.Assets.S3; s != nil {
		s.Endpoint = os.ExpandEnv(s.Endpoint)
		s.Bucket = os.ExpandEnv(s.Bucket)
		s.Region = os.ExpandEnv(s.Region)
		s.AccessKey = envOr(os.ExpandEnv(s.AccessKey), "S3_ACCESS_KEY")
		s.SecretKey = envOr(os.ExpandEnv(s.SecretKey), "S3_SECRET_KEY")
		s.PublicURL = os.ExpandEnv(s.PublicURL)
	}
}

func envOr(v, key string) string {
	if v != "" {
		return v
	}
	return os.Getenv(key)
}

func (c *Config) applyDefaults(base string) {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if !filepath.IsAbs(c.DataDir) {
		c.DataDir = filepath.Join(base, c.DataDir)
	}
	if c.BackupDir != "" && !filepath.IsAbs(c.BackupDir) {
		c.BackupDir = filepath.Join(base, c.BackupDir)
	}
	if c.Backend == BackendSQL && c.SQL.Driver == "sqlite" && c.SQL.DSN != "" &&
		!strings.HasPrefix(c.SQL.DSN, "file:") && !strings.HasPrefix(c.SQL.DSN, ":memory:") &&
		!filepath.IsAbs(c.SQL.DSN) {
		c.SQL.DSN = filepath.Join(base, c.SQL.DSN)
	}
	if c.DefaultLanguage == "" && len(c.Languages) > 0 {
		c.DefaultLanguage = c.Languages[0]
	}
	if gh := c.Assets.GitHub; gh != nil && gh.ReleaseTag == "" {
		gh.ReleaseTag = assets.DefaultReleaseTag
	}
}

// Validate checks the backend selection and the catalog.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile:
	case BackendSQL:
		if c.SQL.DSN == "" {
			return fmt.Errorf("config: sql backend requires sql.dsn: %w", content.ErrInvalid)
		}
		if _, err := content.ParseDialect(c.SQL.Driver); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	default:
		return fmt.Errorf("config: unknown backend %q: %w", c.Backend, content.ErrInvalid)
	}
	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Catalog builds the validated catalog described by the config.
func (c *Config) Catalog() (*content.Catalog, error) {
	return content.NewCatalog(c.MediaTypes, c.Categories)
}

// TextLanguages returns the languages new multilingual values are written
// in.
func (c *Config) TextLanguages() []string {
	if len(c.Languages) > 0 {
		return c.Languages
	}
	return DefaultLanguages
}

// Redacted returns a copy with credentials masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	if c.SQL.DSN != "" && out.SQL.Driver != "sqlite" {
		out.SQL.DSN = mask(c.SQL.DSN)
	}
	if cl := c.Assets.Cloudinary; cl != nil {
		cp := *cl
		cp.APIKey, cp.APISecret = mask(cl.APIKey), mask(cl.APISecret)
		out.Assets.Cloudinary = &cp
	}
	if gh := c.Assets.GitHub; gh != nil {
		cp := *gh
		cp.Token = mask(gh.Token)
		out.Assets.GitHub = &cp
	}
	if s := c.Assets.S3; s != nil {
		cp := *s
		cp.AccessKey, cp.SecretKey = mask(s.AccessKey), mask(s.SecretKey)
		out.Assets.S3 = &cp
	}
	return &out
}

// Write stores the config as YAML at path, replacing any existing file
// atomically.
func (c *Config) Write(path string) error {
	if path == "" {
		return fmt.Errorf("config path required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir %q: %w", dir, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write temp config %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %q -> %q: %w", tmp, path, err)
	}
	return nil
}

// StarterConfig is the config written by init: one image and one audio
// media type with a category each, stored as files under ./data.
func StarterConfig() *Config {
	return &Config{
		Backend:         BackendFile,
		DataDir:         "data",
		Languages:       append([]string(nil), DefaultLanguages...),
		DefaultLanguage: DefaultLanguages[0],
		MediaTypes: []content.MediaType{
			{ID: "image", Name: "Images", SupportsGallery: true},
			{ID: "audio", Name: "Audio"},
		},
		Categories: []content.Category{
			{ID: "painting", Name: "Painting", MediaType: "image"},
			{ID: "music", Name: "Music", MediaType: "audio"},
		},
	}
}

///////////////////////////////////////////////////////////////////////////////
// Content root layout
///////////////////////////////////////////////////////////////////////////////

type appDoc struct {
	GitHub struct {
		Username        string `json:"username"`
		RepoName        string `json:"repoName"`
		Repo            string `json:"repo"`
		MediaReleaseTag string `json:"mediaReleaseTag"`
	} `json:"github"`
	Paths struct {
		DataDir string `json:"dataDir"`
	} `json:"paths"`
}

// namedDoc is a media type or category entry. Names may be a plain string
// or a language map.
type namedDoc struct {
	ID              string       `json:"id"`
	Name            content.Text `json:"name"`
	MediaType       string       `json:"mediaType"`
	DataFile        string       `json:"dataFile"`
	SupportsGallery bool         `json:"supportsGallery"`
}

type categoriesDoc struct {
	ContentTypes []namedDoc `json:"contentTypes"`
	Categories   []namedDoc `json:"categories"`
}

type mediaTypesDoc struct {
	MediaTypes []namedDoc `json:"mediaTypes"`
}

type languagesDoc struct {
	SupportedLanguages []struct {
		Code string `json:"code"`
	} `json:"supportedLanguages"`
	DefaultLanguage string `json:"defaultLanguage"`
}

// readContentRoot reads <root>/config/{app,categories,media-types,languages}.json.
// categories.json is required; the others are optional.
func readContentRoot(ctx context.Context, root string) (*Config, error) {
	lg := log.FromContext(ctx)
	dir := filepath.Join(root, "config")
	cfg := &Config{Backend: BackendFile}

	var app appDoc
	if err := readJSONDoc(filepath.Join(dir, "app.json"), &app); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	cfg.DataDir = strings.TrimSuffix(app.Paths.DataDir, "/")
	repo := app.GitHub.Repo
	if app.GitHub.Username != "" && app.GitHub.RepoName != "" {
		repo = app.GitHub.Username + "/" + app.GitHub.RepoName
	}
	if repo != "" {
		cfg.Assets.GitHub = &GitHubConfig{Repo: repo, ReleaseTag: app.GitHub.MediaReleaseTag}
	}
	if os.Getenv("CLOUDINARY_CLOUD_NAME") != "" {
		cfg.Assets.Cloudinary = &CloudinaryConfig{}
	}

	var cats categoriesDoc
	if err := readJSONDoc(filepath.Join(dir, "categories.json"), &cats); err != nil {
		return nil, err
	}
	list := cats.ContentTypes
	if len(list) == 0 {
		list = cats.Categories
	}
	for _, d := range list {
		cfg.Categories = append(cfg.Categories, content.Category{
			ID:        d.ID,
			Name:      d.Name.String(),
			MediaType: d.MediaType,
			DataFile:  d.DataFile,
		})
	}

	var mts mediaTypesDoc
	err := readJSONDoc(filepath.Join(dir, "media-types.json"), &mts)
	switch {
	case err == nil:
		for _, d := range mts.MediaTypes {
			cfg.MediaTypes = append(cfg.MediaTypes, content.MediaType{
				ID:              d.ID,
				Name:            d.Name.String(),
				SupportsGallery: d.SupportsGallery,
			})
		}
	case errors.Is(err, fs.ErrNotExist):
		// Older content roots only name media types on categories.
		seen := map[string]bool{}
		for _, c := range cfg.Categories {
			if c.MediaType != "" && !seen[c.MediaType] {
				seen[c.MediaType] = true
				cfg.MediaTypes = append(cfg.MediaTypes, content.MediaType{ID: c.MediaType})
			}
		}
		lg.Debug("media-types.json missing, derived from categories", "count", len(cfg.MediaTypes))
	default:
		return nil, err
	}

	var langs languagesDoc
	if err := readJSONDoc(filepath.Join(dir, "languages.json"), &langs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	for _, l := range langs.SupportedLanguages {
		if l.Code != "" {
			cfg.Languages = append(cfg.Languages, l.Code)
		}
	}
	cfg.DefaultLanguage = langs.DefaultLanguage
	return cfg, nil
}

func readJSONDoc(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
