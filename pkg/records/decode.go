package records

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/nutchdb/nutchdb/pkg/wire"
)

// crawlValueSize is the fixed CrawlDatum prefix this decoder interprets:
// version, status, fetch time, retries, fetch interval, score. Trailing
// bytes (signature, per-URL metadata) carry no fields consumed downstream
// and are discarded.
const crawlValueSize = 1 + 1 + 8 + 1 + 4 + 4

// Decode interprets one raw key/value pair under the given schema. It never
// fails: a structurally undecodable payload is returned as a FallbackEntry.
func Decode(schema Schema, key, value []byte) Record {
	k := decodeKey(key)

	var (
		rec Record
		err error
	)
	switch schema {
	case SchemaCrawl:
		rec, err = decodeCrawl(k, value)
	case SchemaLink:
		rec, err = decodeLink(k, value)
	case SchemaHost:
		rec, err = decodeHost(k, value)
	default:
		err = fmt.Errorf("no decoder for schema %v", schema)
	}
	if err != nil {
		return fallback(k, value, err)
	}
	return rec
}

// decodeKey reads the record key as Hadoop Text, falling back to the hex
// rendering of the raw bytes when it is not one.
func decodeKey(key []byte) string {
	s, err := wire.DecodeText(bytes.NewReader(key))
	if err != nil {
		return hex.EncodeToString(key)
	}
	return s
}

// NewFallback wraps a failure that happened outside payload decoding (for
// example a truncated record frame) as a stream-visible record.
func NewFallback(key string, raw []byte, err error) *FallbackEntry {
	return fallback(key, raw, err)
}

func fallback(key string, value []byte, err error) *FallbackEntry {
	return &FallbackEntry{
		Key:         key,
		Raw:         value,
		Fingerprint: xxhash.Sum64(value),
		Err:         err.Error(),
	}
}

func decodeCrawl(url string, value []byte) (*CrawlEntry, error) {
	if len(value) < crawlValueSize {
		return nil, fmt.Errorf("%w: crawl value %d bytes, need %d", wire.ErrTruncated, len(value), crawlValueSize)
	}

	e := &CrawlEntry{
		URL:           url,
		SchemaVersion: value[0],
		Status:        CrawlStatus(value[1]),
		FetchTime:     binary.BigEndian.Uint64(value[2:10]),
		Retries:       value[10],
		FetchInterval: int32(binary.BigEndian.Uint32(value[11:15])),
		Score:         math.Float32frombits(binary.BigEndian.Uint32(value[15:19])),
	}
	e.FetchDatetime = isoDatetime(e.FetchTime)
	return e, nil
}

func decodeLink(target string, value []byte) (*LinkEntry, error) {
	// Nutch writes the inlink count as a plain big-endian int32, not a
	// VInt. A value too short to hold the count is treated as an empty
	// inlink list, matching the upstream format quirks.
	if len(value) < 4 {
		return &LinkEntry{TargetURL: target}, nil
	}

	count := int32(binary.BigEndian.Uint32(value[:4]))
	if count < 0 {
		return nil, fmt.Errorf("negative inlink count %d", count)
	}
	rest := value[4:]
	// Two empty Text fields still take two bytes, so the count cannot
	// exceed half the remaining payload.
	if int64(count) > int64(len(rest))/2 {
		return nil, fmt.Errorf("inlink count %d exceeds payload of %d bytes", count, len(rest))
	}

	e := &LinkEntry{
		TargetURL:  target,
		NumInlinks: count,
		Inlinks:    make([]Inlink, 0, count),
	}

	r := bytes.NewReader(rest)
	for i := int32(0); i < count; i++ {
		from, err := wire.DecodeText(r)
		if err != nil {
			return nil, fmt.Errorf("inlink %d from-url: %w", i, err)
		}
		anchor, err := wire.DecodeText(r)
		if err != nil {
			return nil, fmt.Errorf("inlink %d anchor: %w", i, err)
		}
		e.Inlinks = append(e.Inlinks, Inlink{FromURL: from, Anchor: anchor})
	}
	return e, nil
}

// Well-known HostDatum metadata keys with derived numeric fields.
const (
	metaHomepage           = "homepage"
	metaDNSFailures        = "dnsFailures"
	metaConnectionFailures = "connectionFailures"
	metaUnfetched          = "unfetched"
	metaFetched            = "fetched"
	metaNotModified        = "notModified"
	metaRedirectsTemp      = "redirectsTemp"
	metaRedirectsPerm      = "redirectsPerm"
	metaErrors404          = "errors404"
	metaErrorsOther        = "errorsOther"
	metaAvgResponseTime    = "avgResponseTime"
)

func decodeHost(host string, value []byte) (*HostEntry, error) {
	r := bytes.NewReader(value)

	count, err := wire.DecodeVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("metadata count: %w", err)
	}
	if count < 0 || int64(count) > int64(len(value)) {
		return nil, fmt.Errorf("metadata count %d for payload of %d bytes", count, len(value))
	}

	e := &HostEntry{
		Host:     host,
		Metadata: make([]MetaPair, 0, count),
	}
	for i := int32(0); i < count; i++ {
		key, err := wire.DecodeText(r)
		if err != nil {
			return nil, fmt.Errorf("metadata key %d: %w", i, err)
		}
		val, err := wire.DecodeText(r)
		if err != nil {
			return nil, fmt.Errorf("metadata value %d: %w", i, err)
		}
		e.Metadata = append(e.Metadata, MetaPair{Key: key, Value: val})
	}

	deriveHostFields(e)
	return e, nil
}

// deriveHostFields fills the numeric aggregates from the metadata map,
// defaulting to zero on missing or unparseable values.
func deriveHostFields(e *HostEntry) {
	get := func(key string) string {
		v, _ := e.MetadataValue(key)
		return v
	}
	e.Homepage = get(metaHomepage)
	e.DNSFailures = safeInt(get(metaDNSFailures))
	e.ConnectionFailures = safeInt(get(metaConnectionFailures))
	e.Unfetched = safeInt(get(metaUnfetched))
	e.Fetched = safeInt(get(metaFetched))
	e.NotModified = safeInt(get(metaNotModified))
	e.RedirectsTemp = safeInt(get(metaRedirectsTemp))
	e.RedirectsPerm = safeInt(get(metaRedirectsPerm))
	e.Errors404 = safeInt(get(metaErrors404))
	e.ErrorsOther = safeInt(get(metaErrorsOther))
	e.AvgResponseTime = safeFloat(get(metaAvgResponseTime))
}

func safeInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func safeFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
