// Package storage uploads artifacts to a Supabase storage bucket and
// hands back their public URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	storage_go "github.com/supabase-community/storage-go"
)

var (
	ERR_NOT_CONFIGURED = errors.New("Can't upload without storage credentials")
	ERR_CANT_UPLOAD    = errors.New("Can't upload the artifact")
)

type Config struct {
	URL    string
	Key    string
	Bucket string
}

type Client struct {
	cfg    Config
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Client{
		cfg:    cfg,
		logger: logger.With("component", "storage", "bucket", cfg.Bucket),
	}
}

func (c *Client) Enabled() bool { return c.cfg.URL != "" && c.cfg.Key != "" }

// The storage-go client keeps upload options in shared headers, so every
// call gets its own
func (c *Client) connect() *storage_go.Client {
	return storage_go.NewClient(c.cfg.URL+"/storage/v1", c.cfg.Key, map[string]string{"apikey": c.cfg.Key})
}

// Deterministic public address of an object
func (c *Client) PublicURL(target string) string {
	return c.connect().GetPublicUrl(c.cfg.Bucket, target).SignedURL
}

func describe(err error) string {
	var storage_err *storage_go.StorageError
	if errors.As(err, &storage_err) {
		return fmt.Sprintf("status %d: %s", storage_err.Status, storage_err.Message)
	}
	return err.Error()
}

// Removes target from the bucket
func (c *Client) Delete(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.connect().RemoveFile(c.cfg.Bucket, []string{target}); err != nil {
		return fmt.Errorf("Delete %s: %s", target, describe(err))
	}
	return nil
}

// Replaces target with the contents of local_path and returns the
// object's public URL
func (c *Client) Upload(ctx context.Context, local_path, target, content_type string) (string, error) {
	if !c.Enabled() {
		return "", ERR_NOT_CONFIGURED
	}
	data, err := os.ReadFile(local_path)
	if err != nil {
		return "", fmt.Errorf("Read %s: %w: %w", local_path, ERR_CANT_UPLOAD, err)
	}

	// a missing object is the usual case here
	if err := c.Delete(ctx, target); err != nil {
		c.logger.Debug("Can't delete previous object", "target", target, "err", err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("Upload %s: %w: %w", target, ERR_CANT_UPLOAD, err)
	}

	upsert := true
	start := time.Now()
	_, err = c.connect().UploadFile(c.cfg.Bucket, target, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &content_type,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("Upload %s: %s: %w", target, describe(err), ERR_CANT_UPLOAD)
	}

	url := c.PublicURL(target)
	c.logger.Info("Uploaded", "url", url, "bytes", len(data), "took", time.Since(start))
	return url, nil
}
