package model

import (
	"sort"

	"github.com/gogo/protobuf/proto"
)

func getTag(tags []*TagEntry, key string) (string, bool) {
	for _, e := range tags {
		if e.GetKey() == key {
			return e.GetValue(), true
		}
	}
	return "", false
}

func (n *Node) GetTag(key string) (string, bool) {
	return getTag(n.GetTags(), key)
}

func (w *Way) GetTag(key string) (string, bool) {
	return getTag(w.GetTags(), key)
}

func (r *Relation) GetTag(key string) (string, bool) {
	return getTag(r.GetTags(), key)
}

// TagMap converts tag entries into a map.
func TagMap(tags []*TagEntry) map[string]string {
	result := make(map[string]string, len(tags))
	for _, e := range tags {
		result[e.GetKey()] = e.GetValue()
	}
	return result
}

// TagEntries converts a map into tag entries, sorted by key so the
// encoding is stable.
func TagEntries(tags map[string]string) []*TagEntry {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]*TagEntry, 0, len(keys))
	for _, k := range keys {
		result = append(result, &TagEntry{
			Key:   proto.String(k),
			Value: proto.String(tags[k]),
		})
	}
	return result
}
