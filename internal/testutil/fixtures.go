package testutil

import "encoding/json"

// TopicEntry returns a console topic object, suitable for list and detail
// response fixtures. Without options it carries only topicName.
func TopicEntry(name string, opts ...func(map[string]any)) map[string]any {
	t := map[string]any{"topicName": name}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithTopicSize attaches logDirSummary.totalSizeBytes to a topic entry.
func WithTopicSize(bytes int64) func(map[string]any) {
	return func(t map[string]any) {
		t["logDirSummary"] = map[string]any{"totalSizeBytes": bytes}
	}
}

// WithEmptySummary attaches a logDirSummary object without a size field.
func WithEmptySummary() func(map[string]any) {
	return func(t map[string]any) {
		t["logDirSummary"] = map[string]any{}
	}
}

// WithPartitions attaches a partitions array to a topic entry.
func WithPartitions(parts ...map[string]any) func(map[string]any) {
	return func(t map[string]any) {
		list := make([]any, 0, len(parts))
		for _, p := range parts {
			list = append(list, p)
		}
		t["partitions"] = list
	}
}

// PartitionEntry returns a console partition object with the given size.
func PartitionEntry(id, bytes int64) map[string]any {
	return map[string]any{
		"id":            id,
		"logDirSummary": map[string]any{"totalSizeBytes": bytes},
	}
}

// ListBody encodes topic entries as a bare JSON array.
func ListBody(entries ...any) string {
	return mustJSON(entries)
}

// WrappedListBody encodes topic entries as {"topics": [...]}.
func WrappedListBody(entries ...any) string {
	return mustJSON(map[string]any{"topics": entries})
}

// DetailBody encodes a topic detail response.
func DetailBody(entry map[string]any) string {
	return mustJSON(entry)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic("testutil: marshal fixture: " + err.Error())
	}
	return string(b)
}
