/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/suparena/entityflow/storagemodels"
)

const (
	// URIScheme is the scheme of encoded change URIs.
	URIScheme = "entityflow"
	uriHost   = "changes"
	actionKey = "_action"
)

// EncodeURI renders a change as an addressable URI for out-of-process
// observers. Primary-key conditions are kept in column order:
//
//	entityflow://changes/User?_action=UPDATE&id=5
func EncodeURI(change storagemodels.Change) string {
	var q strings.Builder
	q.WriteString(actionKey)
	q.WriteByte('=')
	q.WriteString(url.QueryEscape(change.Action.String()))

	for _, c := range change.Conditions {
		q.WriteByte('&')
		q.WriteString(url.QueryEscape(c.Column))
		q.WriteByte('=')
		q.WriteString(url.QueryEscape(fmt.Sprint(c.Value)))
	}

	var u = url.URL{
		Scheme:   URIScheme,
		Host:     uriHost,
		Path:     "/" + string(change.EntityType),
		RawQuery: q.String(),
	}
	return u.String()
}

// DecodeURI parses a URI produced by EncodeURI. Condition values are returned
// as strings.
func DecodeURI(raw string) (storagemodels.Change, error) {
	var change storagemodels.Change

	u, err := url.Parse(raw)
	if err != nil {
		return change, fmt.Errorf("parsing change URI: %w", err)
	}
	if u.Scheme != URIScheme || u.Host != uriHost {
		return change, fmt.Errorf("not a change URI: %q", raw)
	}
	change.EntityType = storagemodels.EntityType(strings.TrimPrefix(u.Path, "/"))
	if change.EntityType == "" {
		return change, fmt.Errorf("change URI has no entity type: %q", raw)
	}

	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		if k, err = url.QueryUnescape(k); err != nil {
			return change, fmt.Errorf("decoding change URI key: %w", err)
		}
		if v, err = url.QueryUnescape(v); err != nil {
			return change, fmt.Errorf("decoding change URI value: %w", err)
		}
		if k == actionKey {
			if change.Action, err = storagemodels.ParseAction(v); err != nil {
				return change, err
			}
			continue
		}
		change.Conditions = append(change.Conditions, storagemodels.Condition{Column: k, Value: v})
	}
	if change.Action == 0 {
		return change, fmt.Errorf("change URI has no action: %q", raw)
	}
	return change, nil
}

// Topic is the bus topic carrying changes of entityType.
func Topic(entityType storagemodels.EntityType) string {
	return URIScheme + "." + string(entityType)
}
