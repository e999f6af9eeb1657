package assets

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

var (
	versionPrefix = regexp.MustCompile(`^v\d+/`)
	extSuffix     = regexp.MustCompile(`\.[^./]+$`)
)

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string

	// BaseURL overrides the upload API origin. Empty means the public API.
	BaseURL string
}

// Cloudinary deletes uploaded images and videos through the destroy API.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	conf, err := config.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	if cfg.BaseURL != "" {
		conf.API.UploadPrefix = strings.TrimRight(cfg.BaseURL, "/")
	}
	cld, err := cloudinary.NewFromConfiguration(*conf)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

func (c *Cloudinary) Name() string { return "cloudinary" }

func (c *Cloudinary) Match(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if host != "cloudinary.com" && !strings.HasSuffix(host, ".cloudinary.com") {
		return false
	}
	return strings.Contains(u.Path, "/upload/")
}

// CloudinaryPublicID extracts the public id from a delivery URL, e.g.
// https://res.cloudinary.com/demo/image/upload/v1234/portfolio/painting/a.jpg
// yields portfolio/painting/a.
func CloudinaryPublicID(rawURL string) (string, bool) {
	if !strings.Contains(rawURL, "cloudinary.com") {
		return "", false
	}
	_, rest, ok := strings.Cut(rawURL, "/upload/")
	if !ok {
		return "", false
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	rest = versionPrefix.ReplaceAllString(rest, "")
	rest = extSuffix.ReplaceAllString(rest, "")
	if rest == "" {
		return "", false
	}
	return rest, true
}

// Delete destroys the asset as an image and falls back to video when the
// image destroy does not report ok.
func (c *Cloudinary) Delete(ctx context.Context, rawURL string) error {
	publicID, ok := CloudinaryPublicID(rawURL)
	if !ok {
		return &ProviderError{Provider: c.Name(), Op: "public_id", Cause: fmt.Errorf("not a cloudinary upload url: %s", rawURL)}
	}

	var last string
	for _, resourceType := range []string{"image", "video"} {
		result, err := c.destroy(ctx, resourceType, publicID)
		if err != nil {
			return err
		}
		if result == "ok" {
			return nil
		}
		last = result
	}
	if last == "not found" {
		return &ProviderError{Provider: c.Name(), Op: "destroy", Cause: fmt.Errorf("%w: %s", ErrAssetNotFound, publicID)}
	}
	return &ProviderError{Provider: c.Name(), Op: "destroy", Cause: fmt.Errorf("result %q for %s", last, publicID)}
}

func (c *Cloudinary) destroy(ctx context.Context, resourceType, publicID string) (string, error) {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return "", &ProviderError{Provider: c.Name(), Op: "destroy", Cause: err}
	}
	if res == nil {
		return "", &ProviderError{Provider: c.Name(), Op: "destroy", Cause: fmt.Errorf("empty response")}
	}
	if res.Error.Message != "" {
		return "", &ProviderError{Provider: c.Name(), Op: "destroy", Cause: fmt.Errorf("%s", res.Error.Message)}
	}
	return res.Result, nil
}
