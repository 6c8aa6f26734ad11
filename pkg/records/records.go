// Package records decodes raw Nutch key/value payloads into typed records:
// crawl status entries (crawldb), inbound link lists (linkdb) and host
// aggregates (hostdb). Records that fail structural decoding become
// FallbackEntry values instead of aborting the stream.
package records

import (
	"fmt"
	"strings"
	"time"
)

// Record kinds, as reported by Record.Kind and the Map "kind" field.
const (
	KindCrawl    = "crawl"
	KindLink     = "link"
	KindHost     = "host"
	KindFallback = "fallback"
)

// Record is the tagged union over the decoded payload shapes. Callers switch
// on the concrete type (or Kind) exhaustively.
type Record interface {
	Kind() string
	// Map renders the record as the schema-tagged mapping consumed by
	// external collaborators (graph builders, exporters).
	Map() map[string]any
}

// Schema selects which payload decoder interprets record values. It is
// supplied by the caller; the header's value class name is advisory only.
type Schema int

const (
	SchemaUnknown Schema = iota
	SchemaCrawl
	SchemaLink
	SchemaHost
)

// ParseSchema resolves a database-type name ("crawldb", "linkdb", "hostdb")
// to its Schema.
func ParseSchema(name string) (Schema, error) {
	switch strings.ToLower(name) {
	case "crawldb", "crawl":
		return SchemaCrawl, nil
	case "linkdb", "link":
		return SchemaLink, nil
	case "hostdb", "host":
		return SchemaHost, nil
	default:
		return SchemaUnknown, fmt.Errorf("unknown database type %q", name)
	}
}

// String returns the canonical database-type name.
func (s Schema) String() string {
	switch s {
	case SchemaCrawl:
		return "crawldb"
	case SchemaLink:
		return "linkdb"
	case SchemaHost:
		return "hostdb"
	default:
		return "unknown"
	}
}

// CrawlStatus is the CrawlDatum db status byte.
type CrawlStatus uint8

const (
	StatusUnfetched   CrawlStatus = 1
	StatusFetched     CrawlStatus = 2
	StatusGone        CrawlStatus = 3
	StatusRedirTemp   CrawlStatus = 4
	StatusRedirPerm   CrawlStatus = 5
	StatusNotModified CrawlStatus = 6
	StatusDuplicate   CrawlStatus = 7
	StatusOrphan      CrawlStatus = 8
)

// String returns the status name, "unknown" for anything unmapped.
func (s CrawlStatus) String() string {
	switch s {
	case StatusUnfetched:
		return "unfetched"
	case StatusFetched:
		return "fetched"
	case StatusGone:
		return "gone"
	case StatusRedirTemp:
		return "redirect_temp"
	case StatusRedirPerm:
		return "redirect_perm"
	case StatusNotModified:
		return "not_modified"
	case StatusDuplicate:
		return "duplicate"
	case StatusOrphan:
		return "orphan"
	default:
		return "unknown"
	}
}

// CrawlEntry is one decoded CrawlDatum: per-URL fetch state.
type CrawlEntry struct {
	URL           string
	SchemaVersion uint8
	Status        CrawlStatus
	// FetchTime is epoch milliseconds of the next/last fetch.
	FetchTime uint64
	// FetchDatetime is FetchTime rendered as ISO-8601 UTC, empty when
	// FetchTime is zero.
	FetchDatetime string
	Retries       uint8
	// FetchInterval is the re-fetch interval in seconds.
	FetchInterval int32
	Score         float32
}

func (e *CrawlEntry) Kind() string { return KindCrawl }

func (e *CrawlEntry) Map() map[string]any {
	return map[string]any{
		"kind":           KindCrawl,
		"url":            e.URL,
		"status_code":    uint8(e.Status),
		"status":         e.Status.String(),
		"fetch_time":     e.FetchTime,
		"fetch_datetime": e.FetchDatetime,
		"retries":        e.Retries,
		"fetch_interval": e.FetchInterval,
		"score":          e.Score,
	}
}

// Inlink is one inbound link: the linking page and its anchor text.
type Inlink struct {
	FromURL string
	Anchor  string
}

// LinkEntry is one decoded Inlinks value: all known inbound links of a URL.
type LinkEntry struct {
	TargetURL  string
	NumInlinks int32
	Inlinks    []Inlink
}

func (e *LinkEntry) Kind() string { return KindLink }

func (e *LinkEntry) Map() map[string]any {
	inlinks := make([]map[string]any, len(e.Inlinks))
	for i, l := range e.Inlinks {
		inlinks[i] = map[string]any{"from_url": l.FromURL, "anchor": l.Anchor}
	}
	return map[string]any{
		"kind":        KindLink,
		"target_url":  e.TargetURL,
		"num_inlinks": e.NumInlinks,
		"inlinks":     inlinks,
	}
}

// MetaPair is one host metadata entry, in on-disk order.
type MetaPair struct {
	Key   string
	Value string
}

// HostEntry is one decoded HostDatum: per-host aggregate statistics. The
// numeric fields are derived best-effort from well-known metadata keys and
// default to zero when absent or unparseable.
type HostEntry struct {
	Host     string
	Metadata []MetaPair

	Homepage           string
	DNSFailures        int64
	ConnectionFailures int64
	Unfetched          int64
	Fetched            int64
	NotModified        int64
	RedirectsTemp      int64
	RedirectsPerm      int64
	Errors404          int64
	ErrorsOther        int64
	AvgResponseTime    float64
}

func (e *HostEntry) Kind() string { return KindHost }

// MetadataValue returns the last metadata value recorded for key.
func (e *HostEntry) MetadataValue(key string) (string, bool) {
	for i := len(e.Metadata) - 1; i >= 0; i-- {
		if e.Metadata[i].Key == key {
			return e.Metadata[i].Value, true
		}
	}
	return "", false
}

func (e *HostEntry) Map() map[string]any {
	metadata := make(map[string]string, len(e.Metadata))
	for _, m := range e.Metadata {
		metadata[m.Key] = m.Value
	}
	return map[string]any{
		"kind":                KindHost,
		"host":                e.Host,
		"homepage":            e.Homepage,
		"dns_failures":        e.DNSFailures,
		"connection_failures": e.ConnectionFailures,
		"unfetched":           e.Unfetched,
		"fetched":             e.Fetched,
		"not_modified":        e.NotModified,
		"redirects_temp":      e.RedirectsTemp,
		"redirects_perm":      e.RedirectsPerm,
		"errors_404":          e.Errors404,
		"errors_other":        e.ErrorsOther,
		"avg_response_time":   e.AvgResponseTime,
		"metadata":            metadata,
	}
}

// FallbackEntry carries a record whose payload failed schema decoding: the
// raw bytes, the error, and an xxhash fingerprint of the payload so callers
// can de-duplicate repeated identical failures.
type FallbackEntry struct {
	Key         string
	Raw         []byte
	Fingerprint uint64
	Err         string
}

func (e *FallbackEntry) Kind() string { return KindFallback }

func (e *FallbackEntry) Map() map[string]any {
	return map[string]any{
		"kind":        KindFallback,
		"key":         e.Key,
		"raw":         fmt.Sprintf("%x", e.Raw),
		"fingerprint": e.Fingerprint,
		"error":       e.Err,
	}
}

func isoDatetime(epochMillis uint64) string {
	if epochMillis == 0 {
		return ""
	}
	return time.UnixMilli(int64(epochMillis)).UTC().Format(time.RFC3339)
}
