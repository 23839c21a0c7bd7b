package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/oshokin/net-request/internal/config"
	"github.com/oshokin/net-request/internal/logger"
	"github.com/oshokin/net-request/internal/session"
)

// ErrInvalidCookie indicates a cookie argument that is not in "name=value" form.
var ErrInvalidCookie = errors.New("cookie must be in 'name=value' form")

// ExecuteCookiesList prints the cookies of partition that would be sent to rawURL.
func ExecuteCookiesList(ctx context.Context, cfg *config.Config, partition, rawURL string, w io.Writer) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}

	defer rt.close(ctx)

	store, err := rt.registry.FromPartition(ctx, partitionOrDefault(cfg, partition))
	if err != nil {
		return err
	}

	cookies, err := store.Cookies(ctx, session.Filter{URL: rawURL})
	if err != nil {
		return err
	}

	for _, cookie := range cookies {
		if _, err = fmt.Fprintf(w, "%s=%s\n", cookie.Name, cookie.Value); err != nil {
			return err
		}
	}

	return nil
}

// ExecuteCookiesSet stores "name=value" cookies for rawURL in partition.
func ExecuteCookiesSet(ctx context.Context, cfg *config.Config, partition, rawURL string, pairs []string) error {
	cookies := make([]*http.Cookie, 0, len(pairs))

	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)

		if !found || name == "" {
			return fmt.Errorf("%w: %q", ErrInvalidCookie, pair)
		}

		cookies = append(cookies, &http.Cookie{Name: name, Value: strings.TrimSpace(value), Path: "/"})
	}

	partition = partitionOrDefault(cfg, partition)

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}

	defer rt.close(ctx)

	store, err := rt.registry.FromPartition(ctx, partition)
	if err != nil {
		return err
	}

	if err = store.SetCookies(ctx, rawURL, cookies); err != nil {
		return err
	}

	if !strings.HasPrefix(partition, session.PersistPrefix) {
		logger.Warnf(ctx, "Partition %q is not persistent, the cookies are lost when the process exits", partition)
	}

	logger.Infof(ctx, "Stored %d cookies for %s in %s", len(cookies), rawURL, partition)

	return nil
}

func partitionOrDefault(cfg *config.Config, partition string) string {
	if partition = strings.TrimSpace(partition); partition != "" {
		return partition
	}

	return cfg.DefaultPartition
}
