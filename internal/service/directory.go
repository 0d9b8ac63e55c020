package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/singleflight"

	"github.com/set-night/memelord/internal/config"
	"github.com/set-night/memelord/internal/domain"
)

const addressNotSet = "Not set"

// DirectoryService resolves payment addresses from the community's user
// listing page, one "Username: X, BSV Address: Y" record per line.
type DirectoryService struct {
	url        string
	httpClient *http.Client
	ttl        time.Duration
	now        func() time.Time
	group      singleflight.Group

	mu        sync.RWMutex
	records   map[string]string
	fetchedAt time.Time
}

func NewDirectoryService(url string, ttl time.Duration) *DirectoryService {
	return &DirectoryService{
		url:        url,
		httpClient: &http.Client{Timeout: config.DirectoryTimeout},
		ttl:        ttl,
		now:        time.Now,
	}
}

func (s *DirectoryService) ResolveAddress(ctx context.Context, username string) (string, error) {
	records, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	address := records[username]
	if address == "" {
		slog.InfoContext(ctx, "no address for user", "username", username)
		return "", fmt.Errorf("resolve %q: %w", username, domain.ErrNotFound)
	}
	slog.DebugContext(ctx, "address resolved", "username", username, "address", address)
	return address, nil
}

func (s *DirectoryService) load(ctx context.Context) (map[string]string, error) {
	if records, ok := s.cached(); ok {
		return records, nil
	}

	v, err, _ := s.group.Do("records", func() (any, error) {
		if records, ok := s.cached(); ok {
			return records, nil
		}
		records, err := s.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.records = records
		s.fetchedAt = s.now()
		s.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

func (s *DirectoryService) cached() (map[string]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.records == nil || s.ttl <= 0 || s.now().Sub(s.fetchedAt) >= s.ttl {
		return nil, false
	}
	return s.records, true
}

func (s *DirectoryService) fetch(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "fetch address directory", "error", err)
		return nil, fmt.Errorf("%w: fetch directory: %w", domain.ErrExternalCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: fetch directory: status %d", domain.ErrExternalCall, resp.StatusCode)
	}

	records, err := parseDirectory(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse directory: %w", domain.ErrExternalCall, err)
	}
	return records, nil
}

// parseDirectory maps usernames onto addresses. Users whose address is
// "Not set" map to the empty string.
func parseDirectory(r io.Reader) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	doc.Find("br").ReplaceWithHtml("\n")

	records := make(map[string]string)
	for _, line := range strings.Split(doc.Text(), "\n") {
		username, address, ok := parseRecord(line)
		if !ok {
			continue
		}
		if records[username] == "" {
			records[username] = address
		}
	}
	return records, nil
}

func parseRecord(line string) (username, address string, ok bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "Username: ")
	if !ok {
		return "", "", false
	}
	username, rest, ok = strings.Cut(rest, ", ")
	if !ok || username == "" {
		return "", "", false
	}
	i := strings.Index(rest, "Address: ")
	if i < 0 {
		return "", "", false
	}
	address, _, _ = strings.Cut(rest[i+len("Address: "):], ",")
	address = strings.TrimSpace(address)
	if address == addressNotSet {
		address = ""
	}
	return username, address, true
}
