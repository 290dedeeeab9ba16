// Copyright The OpenTelemetry Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tagenrich adds the OCI tags of the resources referenced by an event to
// the event itself.
//
// Tags are resolved through the OCI Resource Search service and cached by OCID for
// the lifetime of the function container.
package tagenrich

import (
	"bytes"
	"context"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/internal/event"
	"github.com/oracle-samples/oci-observability-functions/internal/lookup"
)

// ErrIdentifierMismatch is returned when a search result belongs to another OCID
// than the one searched for.
var ErrIdentifierMismatch = errors.New("identifier mismatch")

// Tag categories as they appear in a tag object.
const (
	FreeformKey   = "freeform"
	DefinedKey    = "defined"
	SystemKey     = "system"
	OCIDKey       = "key"
	IdentifierKey = "identifier"
)

var indent = &pretty.Options{Width: 80, Prefix: "", Indent: "    "}

type Enricher struct {
	cfg      config.TagEnrich
	searcher Searcher
	tags     *cache.Cache
	logger   *zap.Logger
}

func NewEnricher(cfg config.TagEnrich, searcher Searcher, logger *zap.Logger) *Enricher {
	return &Enricher{
		cfg:      cfg,
		searcher: searcher,
		tags:     cache.New(cache.NoExpiration, 0),
		logger:   logger,
	}
}

// Enrich adds the tag collection to every event of payload and returns the
// enriched payload as indented JSON. A single event stays a single event.
func (e *Enricher) Enrich(ctx context.Context, payload []byte) ([]byte, error) {
	batch, err := event.Parse(payload)
	if err != nil {
		return nil, err
	}

	return e.EnrichBatch(ctx, batch)
}

// EnrichBatch is Enrich for an already parsed payload.
func (e *Enricher) EnrichBatch(ctx context.Context, batch event.Batch) ([]byte, error) {
	enriched := make([][]byte, 0, batch.Len())
	for i, ev := range batch.Events {
		out, err := e.EnrichEvent(ctx, ev)
		if err != nil {
			return nil, errors.Wrapf(err, "event %d", i)
		}
		enriched = append(enriched, out)
	}

	var out []byte
	if batch.Single {
		out = enriched[0]
	} else {
		out = append([]byte{'['}, bytes.Join(enriched, []byte{','})...)
		out = append(out, ']')
	}

	return pretty.PrettyOptions(out, indent), nil
}

// EnrichEvent returns ev with its tag collection in place.
func (e *Enricher) EnrichEvent(ctx context.Context, ev gjson.Result) ([]byte, error) {
	collection, err := e.Collect(ctx, ev)
	if err != nil {
		return nil, err
	}

	return e.place([]byte(ev.Raw), collection)
}

// Collect assembles the tags of every target OCID found in ev. In list format the
// result is a JSON array of tag objects, in map format an object keyed by OCID.
func (e *Enricher) Collect(ctx context.Context, ev gjson.Result) ([]byte, error) {
	byOCID := []byte(`{}`)
	var list [][]byte

	for _, key := range e.cfg.TargetOCIDKeys {
		match, found := lookup.Find(ev, key)
		if !found {
			if e.cfg.WarnIfNotFound {
				e.logger.Warn("target OCID key not found", zap.String("key", key))
				e.logger.Debug("event", zap.String("event", ev.Raw))
			}
			continue
		}

		if match.Value.Type != gjson.String {
			e.logger.Error("target OCID is not a string",
				zap.String("key", key), zap.String("value", match.Value.Raw), zap.String("event", ev.Raw))
			continue
		}
		ocid := match.Value.Str

		tags, err := e.lookupTags(ctx, ocid)
		if err != nil {
			return nil, err
		}

		if e.cfg.Format == config.FormatMap {
			byOCID, err = sjson.SetRawBytes(byOCID, lookup.EscapeKey(ocid), tags)
		} else {
			tags, err = labelled(tags, key, ocid)
			list = append(list, tags)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to assemble tags of %s", ocid)
		}
	}

	collection := byOCID
	if e.cfg.Format != config.FormatMap {
		collection = append([]byte{'['}, bytes.Join(list, []byte{','})...)
		collection = append(collection, ']')
	}

	e.logger.Debug("combined tags", zap.ByteString("tags", collection))
	return collection, nil
}

// labelled returns a copy of tags carrying the OCID key and the OCID, unless no
// tags were collected.
func labelled(tags []byte, key, ocid string) ([]byte, error) {
	if len(gjson.ParseBytes(tags).Map()) == 0 {
		return tags, nil
	}

	out, err := sjson.SetBytes(append([]byte(nil), tags...), OCIDKey, key)
	if err != nil {
		return nil, err
	}

	return sjson.SetBytes(out, IdentifierKey, ocid)
}

func (e *Enricher) lookupTags(ctx context.Context, ocid string) ([]byte, error) {
	if cached, ok := e.tags.Get(ocid); ok {
		e.logger.Debug("using cache", zap.String("ocid", ocid))
		return cached.([]byte), nil
	}

	tags, err := e.retrieve(ctx, ocid)
	if err != nil {
		return nil, err
	}

	e.tags.Set(ocid, tags, cache.NoExpiration)
	return tags, nil
}

func (e *Enricher) retrieve(ctx context.Context, ocid string) ([]byte, error) {
	e.logger.Debug("searching", zap.String("ocid", ocid))

	resources, err := e.searcher.Search(ctx, ocid)
	if err != nil {
		return nil, err
	}

	tags := []byte(`{}`)
	for _, r := range resources {
		if r.Identifier != ocid {
			return nil, errors.Wrapf(ErrIdentifierMismatch, "%s / %s", ocid, r.Identifier)
		}

		categories := []struct {
			name    string
			include bool
			empty   bool
			tags    interface{}
		}{
			{FreeformKey, e.cfg.IncludeFreeform, len(r.FreeformTags) == 0, r.FreeformTags},
			{DefinedKey, e.cfg.IncludeDefined, len(r.DefinedTags) == 0, r.DefinedTags},
			{SystemKey, e.cfg.IncludeSystem, len(r.SystemTags) == 0, r.SystemTags},
		}

		for _, c := range categories {
			if !c.include || (c.empty && e.cfg.OmitEmptyResults) {
				continue
			}

			if c.empty {
				tags, err = sjson.SetRawBytes(tags, c.name, []byte(`{}`))
			} else {
				tags, err = sjson.SetBytes(tags, c.name, c.tags)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "failed to set %s tags of %s", c.name, ocid)
			}
		}
	}

	e.logger.Debug("tags retrieved", zap.String("ocid", ocid), zap.ByteString("tags", tags))
	return tags, nil
}

// place puts the collection under the assembly key at the event root, unless the
// position key is set and names an object without that key (the collection goes
// there) or an array (the collection is appended to it).
func (e *Enricher) place(ev, collection []byte) ([]byte, error) {
	assemblyKey := lookup.EscapeKey(e.cfg.AssemblyKey)

	if e.cfg.PositionKey != "" {
		if match, found := lookup.Find(gjson.ParseBytes(ev), e.cfg.PositionKey); found {
			at := lookup.JoinPath(match.Path)

			switch {
			case match.Value.IsObject():
				existing := match.Value.Get(assemblyKey)
				if !existing.Exists() || existing.Type == gjson.Null {
					return sjson.SetRawBytes(ev, at+"."+assemblyKey, collection)
				}

			case match.Value.IsArray():
				return appendAll(ev, at, collection)
			}
		}
	}

	return sjson.SetRawBytes(ev, assemblyKey, collection)
}

// appendAll appends the entries of a list collection, or a map collection as a
// single entry, to the array at path.
func appendAll(ev []byte, path string, collection []byte) ([]byte, error) {
	parsed := gjson.ParseBytes(collection)
	if !parsed.IsArray() {
		return sjson.SetRawBytes(ev, path+".-1", collection)
	}

	var err error
	for _, entry := range parsed.Array() {
		if ev, err = sjson.SetRawBytes(ev, path+".-1", []byte(entry.Raw)); err != nil {
			return nil, err
		}
	}

	return ev, nil
}
